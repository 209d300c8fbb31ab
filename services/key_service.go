package services

import (
	"time"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/repositories"
)

type IKeyService interface {
	Upload(credential string, req auth.KeyUploadRequest) error
	Get(userID string) (repositories.KeyBundle, error)
}

// KeyService is the public key directory. Uploads are bound to the user of a
// fully verified token, never to an id taken from the request body.
type KeyService struct {
	auth       Authenticator
	repository repositories.IKeyRepository
	now        func() time.Time
}

func NewKeyService(authenticator Authenticator, repository repositories.IKeyRepository) *KeyService {
	return &KeyService{auth: authenticator, repository: repository, now: time.Now}
}

func (s *KeyService) Upload(credential string, req auth.KeyUploadRequest) error {
	principal, err := s.auth.ValidateCredential(credential)
	if err != nil {
		return err
	}
	if err := auth.Validate(req); err != nil {
		return err
	}
	return s.repository.PutKeys(repositories.KeyBundle{
		UserID:       principal.UserID,
		PublicKey:    req.PublicKey,
		SignedPreKey: req.SignedPreKey,
		UpdatedAt:    s.now().UTC(),
	})
}

func (s *KeyService) Get(userID string) (repositories.KeyBundle, error) {
	return s.repository.GetKeys(userID)
}
