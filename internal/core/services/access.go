package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/pdfrag/internal/core/domain"
	"github.com/custodia-labs/pdfrag/internal/core/ports/driven"
	"github.com/custodia-labs/pdfrag/internal/logger"
)

// AccessControl computes the document set a caller may retrieve from.
// Scopes are computed fresh for every request and never cached, so a
// visibility change takes effect on the next query.
type AccessControl struct {
	userStore driven.UserStore
	docStore  driven.DocumentStore
}

// NewAccessControl creates an access control service.
func NewAccessControl(userStore driven.UserStore, docStore driven.DocumentStore) *AccessControl {
	return &AccessControl{userStore: userStore, docStore: docStore}
}

// ScopeFor returns the caller's access scope: their own documents plus
// every public document, or everything for admins.
func (a *AccessControl) ScopeFor(ctx context.Context, userID string) (domain.AccessScope, error) {
	user, err := a.userStore.GetUser(ctx, userID)
	if err != nil {
		return domain.AccessScope{}, fmt.Errorf("resolving user: %w", err)
	}
	if !user.Active {
		return domain.AccessScope{}, domain.ErrAccessDenied
	}

	if user.Role == domain.RoleAdmin {
		logger.Debug("Access scope for %s: all documents (admin)", user.Username)
		return domain.AllDocuments(), nil
	}

	docs, err := a.docStore.ListVisible(ctx, userID)
	if err != nil {
		return domain.AccessScope{}, fmt.Errorf("listing visible documents: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Status == domain.StatusCompleted {
			ids = append(ids, d.ID)
		}
	}
	logger.Debug("Access scope for %s: %d documents", user.Username, len(ids))
	return domain.NewAccessScope(ids), nil
}
