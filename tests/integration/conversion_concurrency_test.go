//go:build integration

package integration

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	documentapp "github.com/fieldbook/backend/internal/application/document"
	partnerapp "github.com/fieldbook/backend/internal/application/partner"
	projectapp "github.com/fieldbook/backend/internal/application/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/persistence"
	"github.com/fieldbook/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// approvedEstimate drives a kitchen estimate to approved through the API
func approvedEstimate(t *testing.T, s *apiServer, owner uuid.UUID) uuid.UUID {
	t.Helper()
	api := s.clientFor(t, owner)
	client := testutil.Decode[partnerapp.ClientResponse](t, api.Do(t, http.MethodPost, "/api/v1/clients",
		partnerapp.CreateClientRequest{Name: "Morgan Lee"}), http.StatusCreated).Data
	project := testutil.Decode[projectapp.ProjectResponse](t, api.Do(t, http.MethodPost, "/api/v1/projects",
		projectapp.CreateProjectRequest{Name: "Kitchen", ClientID: &client.ID}), http.StatusCreated).Data
	est := testutil.Decode[documentapp.EstimateResponse](t,
		api.Do(t, http.MethodPost, "/api/v1/estimates", kitchenEstimate(project.ID)), http.StatusCreated).Data

	path := "/api/v1/estimates/" + est.ID.String()
	testutil.Decode[documentapp.EstimateResponse](t, api.Do(t, http.MethodPost, path+"/send", nil), http.StatusOK)
	testutil.Decode[documentapp.EstimateResponse](t, api.Do(t, http.MethodPost, path+"/approve", nil), http.StatusOK)
	return est.ID
}

type conversionResult struct {
	resp *documentapp.ConversionResponse
	err  error
}

var halfProgress = documentapp.ConvertEstimateRequest{BillingType: "progress", Percentage: decPtr("50"), Phase: "Cabinets"}

func convertConcurrently(svc *documentapp.EstimateService, owner, estimateID uuid.UUID, req documentapp.ConvertEstimateRequest, n int) []conversionResult {
	results := make([]conversionResult, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			resp, err := svc.Convert(context.Background(), owner, estimateID, req)
			results[i] = conversionResult{resp: resp, err: err}
		}(i)
	}
	close(start)
	wg.Wait()
	return results
}

func countInvoicesForEstimate(t *testing.T, db *TestDB, estimateID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.DB.Table("invoices").Where("estimate_id = ? AND deleted_at IS NULL", estimateID).Count(&count).Error)
	return count
}

func TestConcurrentConversion_Locked(t *testing.T) {
	s := newAPIServer(t, nil)
	owner := testutil.TestOwnerID()
	estimateID := approvedEstimate(t, s, owner)

	results := convertConcurrently(s.Estimates, owner, estimateID, halfProgress, 6)

	var invoiceID uuid.UUID
	created := 0
	for _, r := range results {
		if r.err != nil {
			assert.True(t, errors.Is(r.err, shared.ErrLockNotObtained), "unexpected error: %v", r.err)
			continue
		}
		if invoiceID == uuid.Nil {
			invoiceID = r.resp.Invoice.ID
		}
		assert.Equal(t, invoiceID, r.resp.Invoice.ID, "every caller sees the same invoice")
		if !r.resp.Replayed {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, int64(1), countInvoicesForEstimate(t, s.DB, estimateID))
}

// Without a lock the unique conversion key is the last line of defence
func TestConcurrentConversion_UniqueKeyOnly(t *testing.T) {
	s := newAPIServer(t, nil)
	owner := testutil.TestOwnerID()
	estimateID := approvedEstimate(t, s, owner)

	db := s.DB.DB
	unguarded := documentapp.NewEstimateService(
		persistence.NewGormEstimateRepository(db),
		persistence.NewGormInvoiceRepository(db),
		persistence.NewGormProjectRepository(db),
		persistence.NewGormClientRepository(db),
		persistence.NewGormContractorProfileRepository(db),
		documentapp.DefaultSettings(),
		documentapp.WithLogger(zap.NewNop()),
	)

	results := convertConcurrently(unguarded, owner, estimateID, halfProgress, 6)

	succeeded := 0
	for _, r := range results {
		if r.err != nil {
			var domainErr *shared.DomainError
			require.ErrorAs(t, r.err, &domainErr)
			assert.Equal(t, shared.CodeConflict, domainErr.Code)
			continue
		}
		succeeded++
	}
	assert.GreaterOrEqual(t, succeeded, 1)
	assert.Equal(t, int64(1), countInvoicesForEstimate(t, s.DB, estimateID))
}
