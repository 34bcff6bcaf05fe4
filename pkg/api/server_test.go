package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/notify"
	"github.com/membertools/dues/pkg/observability"
	"github.com/membertools/dues/pkg/reconciler"
)

// mockService implements members.Service with pluggable functions
type mockService struct {
	registerFunc        func(ctx context.Context, req *members.RegisterRequest) (*members.Member, error)
	getMemberFunc       func(ctx context.Context, id string) (*members.Member, error)
	listMembersFunc     func(ctx context.Context) ([]*members.Member, error)
	getMembershipFunc   func(ctx context.Context, id string) (*members.Membership, error)
	listMembershipsFunc func(ctx context.Context) ([]*members.Membership, error)
	switchFunc          func(ctx context.Context, membershipID string) (*members.SwitchResult, error)
	generateFunc        func(ctx context.Context, membershipID string) (*members.Invoice, error)
	listInvoicesFunc    func(ctx context.Context, membershipID string, limit int) ([]*members.Invoice, error)
}

func (m *mockService) Register(ctx context.Context, req *members.RegisterRequest) (*members.Member, error) {
	return m.registerFunc(ctx, req)
}

func (m *mockService) GetMember(ctx context.Context, id string) (*members.Member, error) {
	return m.getMemberFunc(ctx, id)
}

func (m *mockService) ListMembers(ctx context.Context) ([]*members.Member, error) {
	return m.listMembersFunc(ctx)
}

func (m *mockService) GetMembership(ctx context.Context, id string) (*members.Membership, error) {
	return m.getMembershipFunc(ctx, id)
}

func (m *mockService) ListMembershipsWithMembers(ctx context.Context) ([]*members.Membership, error) {
	return m.listMembershipsFunc(ctx)
}

func (m *mockService) SwitchToMonthly(ctx context.Context, membershipID string) (*members.SwitchResult, error) {
	return m.switchFunc(ctx, membershipID)
}

func (m *mockService) GenerateInvoice(ctx context.Context, membershipID string) (*members.Invoice, error) {
	return m.generateFunc(ctx, membershipID)
}

func (m *mockService) ListInvoices(ctx context.Context, membershipID string, limit int) ([]*members.Invoice, error) {
	return m.listInvoicesFunc(ctx, membershipID, limit)
}

// mockPassRunner implements PassRunner
type mockPassRunner struct {
	passFunc func(ctx context.Context, today time.Time) (*reconciler.PassStats, error)
}

func (m *mockPassRunner) Pass(ctx context.Context, today time.Time) (*reconciler.PassStats, error) {
	return m.passFunc(ctx, today)
}

// mockDeliveries implements DeliveryReporter
type mockDeliveries struct {
	logs  []*notify.DeliveryLog
	stats notify.DeliveryStats
}

func (m *mockDeliveries) DeliveryLogs(limit int) []*notify.DeliveryLog { return m.logs }
func (m *mockDeliveries) DeliveryStats() notify.DeliveryStats          { return m.stats }

func newTestServer(service members.Service, runner PassRunner, deliveries DeliveryReporter) *Server {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewServer(service, runner, deliveries, logger, nil)
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder
}

func TestRegisterMember(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockService{
			registerFunc: func(_ context.Context, req *members.RegisterRequest) (*members.Member, error) {
				return &members.Member{
					ID:        "mem-1",
					FirstName: req.FirstName,
					LastName:  req.LastName,
					Email:     req.Email,
				}, nil
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "POST", "/members", members.RegisterRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		})
		assert.Equal(t, http.StatusCreated, recorder.Code)

		var got members.Member
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, "mem-1", got.ID)
		assert.Equal(t, "ada@example.com", got.Email)
	})

	t.Run("error - duplicate email returns 409", func(t *testing.T) {
		service := &mockService{
			registerFunc: func(context.Context, *members.RegisterRequest) (*members.Member, error) {
				return nil, fmt.Errorf("%w: member with email ada@example.com", members.ErrAlreadyExists)
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "POST", "/members", members.RegisterRequest{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		})
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("error - missing fields return 400", func(t *testing.T) {
		service := &mockService{
			registerFunc: func(context.Context, *members.RegisterRequest) (*members.Member, error) {
				return nil, fmt.Errorf("%w: first name, last name and email are required", members.ErrInvalidInput)
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "POST", "/members", members.RegisterRequest{})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("error - malformed body returns 400", func(t *testing.T) {
		server := newTestServer(&mockService{}, nil, nil)

		req := httptest.NewRequest("POST", "/members", bytes.NewReader([]byte("{not json")))
		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestGetMember(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockService{
			getMemberFunc: func(_ context.Context, id string) (*members.Member, error) {
				return &members.Member{ID: id, Email: "ada@example.com"}, nil
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "GET", "/members/mem-1", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("error - unknown member returns 404", func(t *testing.T) {
		service := &mockService{
			getMemberFunc: func(_ context.Context, id string) (*members.Member, error) {
				return nil, fmt.Errorf("%w: member %s", members.ErrNotFound, id)
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "GET", "/members/missing", nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestListMembers(t *testing.T) {
	service := &mockService{
		listMembersFunc: func(context.Context) ([]*members.Member, error) {
			return []*members.Member{{ID: "mem-1"}, {ID: "mem-2"}}, nil
		},
	}
	server := newTestServer(service, nil, nil)

	recorder := doRequest(t, server, "GET", "/members", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var got []*members.Member
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	assert.Len(t, got, 2)
}

func TestSwitchToMonthly(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		monthly := int64(30000)
		service := &mockService{
			switchFunc: func(_ context.Context, id string) (*members.SwitchResult, error) {
				return &members.SwitchResult{
					Affected: 1,
					Membership: &members.Membership{
						ID:            id,
						MonthlyAmount: &monthly,
						IsFirstMonth:  true,
					},
				}, nil
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "POST", "/memberships/ms-1/monthly", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)

		var got members.SwitchResult
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, int64(1), got.Affected)
		assert.True(t, got.Membership.IsFirstMonth)
	})

	t.Run("error - unknown membership returns 404", func(t *testing.T) {
		service := &mockService{
			switchFunc: func(_ context.Context, id string) (*members.SwitchResult, error) {
				return nil, fmt.Errorf("%w: membership %s", members.ErrNotFound, id)
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "POST", "/memberships/missing/monthly", nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestGenerateInvoice(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service := &mockService{
			generateFunc: func(_ context.Context, id string) (*members.Invoice, error) {
				return &members.Invoice{ID: "inv-1", MembershipID: id, AmountCents: 80000}, nil
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "POST", "/memberships/ms-1/invoices", nil)
		assert.Equal(t, http.StatusCreated, recorder.Code)

		var got members.Invoice
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, int64(80000), got.AmountCents)
	})

	t.Run("error - service failure returns 500", func(t *testing.T) {
		service := &mockService{
			generateFunc: func(context.Context, string) (*members.Invoice, error) {
				return nil, errors.New("database error")
			},
		}
		server := newTestServer(service, nil, nil)

		recorder := doRequest(t, server, "POST", "/memberships/ms-1/invoices", nil)
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestListInvoices(t *testing.T) {
	var gotLimit int
	service := &mockService{
		listInvoicesFunc: func(_ context.Context, id string, limit int) ([]*members.Invoice, error) {
			gotLimit = limit
			return []*members.Invoice{{ID: "inv-1", MembershipID: id}}, nil
		},
	}
	server := newTestServer(service, nil, nil)

	recorder := doRequest(t, server, "GET", "/memberships/ms-1/invoices?limit=5", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 5, gotLimit)
}

func TestRunReconciliation(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		runner := &mockPassRunner{
			passFunc: func(context.Context, time.Time) (*reconciler.PassStats, error) {
				return &reconciler.PassStats{Processed: 3, Invoiced: 3, RemindersSent: 1}, nil
			},
		}
		server := newTestServer(&mockService{}, runner, nil)

		recorder := doRequest(t, server, "POST", "/reconciliation/run", nil)
		assert.Equal(t, http.StatusOK, recorder.Code)

		var got reconciler.PassStats
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
		assert.Equal(t, int64(3), got.Processed)
	})

	t.Run("error - pass in progress returns 409", func(t *testing.T) {
		runner := &mockPassRunner{
			passFunc: func(context.Context, time.Time) (*reconciler.PassStats, error) {
				return nil, reconciler.ErrPassInProgress
			},
		}
		server := newTestServer(&mockService{}, runner, nil)

		recorder := doRequest(t, server, "POST", "/reconciliation/run", nil)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestListDeliveries(t *testing.T) {
	deliveries := &mockDeliveries{
		logs: []*notify.DeliveryLog{
			{ID: "log-1", Kind: notify.ReminderMonthly, Email: "ada@example.com",
				Status: notify.DeliveryStatusSuccess},
		},
		stats: notify.DeliveryStats{Total: 1, Success: 1},
	}
	server := newTestServer(&mockService{}, nil, deliveries)

	recorder := doRequest(t, server, "GET", "/notifications/deliveries", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var got struct {
		Stats      notify.DeliveryStats  `json:"stats"`
		Deliveries []*notify.DeliveryLog `json:"deliveries"`
	}
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&got))
	assert.Equal(t, 1, got.Stats.Total)
	require.Len(t, got.Deliveries, 1)
	assert.Equal(t, "ada@example.com", got.Deliveries[0].Email)
}

func TestRequestIDPropagation(t *testing.T) {
	service := &mockService{
		listMembersFunc: func(context.Context) ([]*members.Member, error) { return nil, nil },
	}
	server := newTestServer(service, nil, nil)

	recorder := doRequest(t, server, "GET", "/members", nil)
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
}
