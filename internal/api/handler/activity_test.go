package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vfarias/sales-analytics-api/infrastructure/database/postgres"
	"github.com/vfarias/sales-analytics-api/infrastructure/repository/mocks"
	"github.com/vfarias/sales-analytics-api/internal/domain"
	"go.uber.org/mock/gomock"
)

type stubConn struct{}

func (stubConn) Exec(query string, args ...any) (sql.Result, error) { return nil, nil }
func (stubConn) Query(query string, args ...any) (*sql.Rows, error) { return nil, nil }
func (stubConn) QueryRow(query string, args ...any) *sql.Row        { return nil }
func (stubConn) Close() error                                       { return nil }
func (stubConn) Ping(ctx context.Context) error                     { return nil }
func (c stubConn) RunInTransaction(ctx context.Context, fn func(q postgres.Queryer) error) error {
	return fn(c)
}

func TestListActivityLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockActivityLogRepository(ctrl)

	t.Run("Lista entradas com o limite informado", func(t *testing.T) {
		mockRepo.EXPECT().
			ListRecent(gomock.Any(), 5).
			Return([]*domain.ActivityLog{
				{ID: "a1", Action: "sales.import", Entity: "sale"},
			}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/activity?limit=5", nil)
		rec := httptest.NewRecorder()

		ListActivityLogs(stubConn{}, mockRepo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "sales.import")
	})

	t.Run("Sem limite o repositório recebe zero e aplica o padrão", func(t *testing.T) {
		mockRepo.EXPECT().
			ListRecent(gomock.Any(), 0).
			Return([]*domain.ActivityLog{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/v1/activity", nil)
		rec := httptest.NewRecorder()

		ListActivityLogs(stubConn{}, mockRepo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Limite inválido é rejeitado", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/activity?limit=abc", nil)
		rec := httptest.NewRecorder()

		ListActivityLogs(stubConn{}, mockRepo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
