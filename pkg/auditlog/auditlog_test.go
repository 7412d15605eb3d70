package auditlog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/takdim/inven-go/pkg/models"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) PersistLog(ctx context.Context, entry models.AuditLog, data interface{}) error {
	args := m.Called(entry, data)
	return args.Error(0)
}

func TestLogFillsActorAndAction(t *testing.T) {
	store := new(MockStore)
	audit := NewAuditLog(store, zap.NewNop())
	userID := 7

	store.On("PersistLog", mock.MatchedBy(func(entry models.AuditLog) bool {
		return entry.ResourceType == "category" &&
			entry.ResourceID == 3 &&
			entry.Action == "delete" &&
			entry.Description == "Deleted category Paper" &&
			*entry.UserID == userID &&
			*entry.IPAddress == "10.0.0.1"
	}), map[string]interface{}{"name": "Paper"}).Return(nil)

	audit.Log(context.Background(), Actor{UserID: &userID, IP: "10.0.0.1"}, "delete", "Deleted category Paper",
		map[string]interface{}{"name": "Paper"}, &models.Category{ID: 3})

	store.AssertExpectations(t)
}

func TestLogSwallowsStoreErrors(t *testing.T) {
	store := new(MockStore)
	audit := NewAuditLog(store, zap.NewNop())
	store.On("PersistLog", mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		audit.Log(context.Background(), Actor{}, "login", "", nil, &models.User{ID: 1})
	})
	store.AssertExpectations(t)
}
