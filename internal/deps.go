package internal

import (
	"instabytes/moments-api/internal/service"
	"instabytes/moments-api/pkg/security"
	"instabytes/moments-api/storage"

	"gorm.io/gorm"
)

// Deps carries every process-scoped collaborator. Constructed once in
// api.NewRouter and passed by reference into handlers.
type Deps struct {
	DB       *gorm.DB
	Hasher   *security.BcryptHash
	Tokens   *security.TokenIssuer
	Storage  storage.Storage
	Tagger   *service.Tagger
	Uploader *service.Uploader
}
