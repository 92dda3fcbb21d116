package service

import (
	"errors"
	"fmt"

	"github.com/leadflow/leadflow/internal/repository"
)

var (
	// ErrUnauthenticated means the caller has no session owner to scope the operation to.
	ErrUnauthenticated = errors.New("sessão expirada, entre novamente")
	// ErrUnavailable wraps store and transport failures.
	ErrUnavailable = errors.New("serviço indisponível, tente novamente")
	ErrNotFound    = errors.New("registro não encontrado")
)

var notFoundErrors = []error{
	repository.ErrLeadNotFound,
	repository.ErrInteractionNotFound,
	repository.ErrProposalNotFound,
	repository.ErrTaskNotFound,
	repository.ErrFormTokenNotFound,
	repository.ErrFileNotFound,
}

// storeError classifies a repository error as ErrNotFound or ErrUnavailable,
// keeping the original error in the chain.
func storeError(op string, err error) error {
	for _, notFound := range notFoundErrors {
		if errors.Is(err, notFound) {
			return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

func requireOwner(userID string) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return nil
}
