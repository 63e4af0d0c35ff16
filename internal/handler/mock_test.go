package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cdia2025/cheque-app/internal/domain"
	"github.com/cdia2025/cheque-app/internal/handler"
	"github.com/cdia2025/cheque-app/internal/service"
	"github.com/cdia2025/cheque-app/internal/tabular"
)

// mockRosterServicer is a test double for handler.RosterServicer.
// Set only the method fields your test needs.
type mockRosterServicer struct {
	list    func(ctx context.Context) ([]string, error)
	rows    func(ctx context.Context, name string, stage *domain.Stage, page domain.PaginationParams) ([]domain.Recipient, int, error)
	summary func(ctx context.Context, name string) (map[domain.Stage]int, error)
	imp     func(ctx context.Context, name string, r io.Reader, format tabular.Format) (domain.Roster, error)
	delete  func(ctx context.Context, name string, confirmed bool) error
	clear   func(ctx context.Context, name string, confirmed bool) error
}

func (m *mockRosterServicer) List(ctx context.Context) ([]string, error) {
	return m.list(ctx)
}
func (m *mockRosterServicer) Rows(ctx context.Context, name string, stage *domain.Stage, page domain.PaginationParams) ([]domain.Recipient, int, error) {
	return m.rows(ctx, name, stage, page)
}
func (m *mockRosterServicer) Summary(ctx context.Context, name string) (map[domain.Stage]int, error) {
	return m.summary(ctx, name)
}
func (m *mockRosterServicer) Import(ctx context.Context, name string, r io.Reader, format tabular.Format) (domain.Roster, error) {
	return m.imp(ctx, name, r, format)
}
func (m *mockRosterServicer) Delete(ctx context.Context, name string, confirmed bool) error {
	return m.delete(ctx, name, confirmed)
}
func (m *mockRosterServicer) Clear(ctx context.Context, name string, confirmed bool) error {
	return m.clear(ctx, name, confirmed)
}

// mockWorkflowServicer is a test double for handler.WorkflowServicer.
type mockWorkflowServicer struct {
	transition func(ctx context.Context, roster string, t domain.Transition, ids []string, params domain.TransitionParams) (service.ApplyResult, error)
	export     func(ctx context.Context, roster string, ids []string, actor string) (service.ApplyResult, error)
}

func (m *mockWorkflowServicer) Transition(ctx context.Context, roster string, t domain.Transition, ids []string, params domain.TransitionParams) (service.ApplyResult, error) {
	return m.transition(ctx, roster, t, ids, params)
}
func (m *mockWorkflowServicer) Export(ctx context.Context, roster string, ids []string, actor string) (service.ApplyResult, error) {
	return m.export(ctx, roster, ids, actor)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.RosterServicer   = (*mockRosterServicer)(nil)
	_ handler.WorkflowServicer = (*mockWorkflowServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

// newHTTPHandler wires a Server with the given mocks into the chi router,
// mirroring how main.go wires it in production. Either mock may be nil.
func newHTTPHandler(rosters *mockRosterServicer, workflow *mockWorkflowServicer) http.Handler {
	if rosters == nil {
		rosters = &mockRosterServicer{}
	}
	if workflow == nil {
		workflow = &mockWorkflowServicer{}
	}
	return handler.Handler(handler.NewServer(rosters, workflow))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorDetail {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp.Error
}

func recipientFixture(id string) domain.Recipient {
	return domain.Recipient{
		ID:                id,
		NameLocal:         "陳大文",
		NameLatin:         "Chan Tai Man",
		ReflectionMeeting: "Y",
		ReflectionForm:    "Y",
	}
}
