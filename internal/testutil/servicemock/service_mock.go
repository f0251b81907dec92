package servicemock

import (
	"context"

	"qrd/internal/ledger"
	"qrd/internal/models"
	"qrd/internal/services"
)

// MockQRService implements services.QRServiceInterface with injectable
// behavior per operation.
type MockQRService struct {
	GenerateFn    func(ctx context.Context, params services.GenerateParams) (*services.GenerateResult, error)
	ScanFn        func(ctx context.Context, params services.ScanParams) (*services.ScanResult, error)
	GetRecordFn   func(ctx context.Context, id string) (*models.CodeRecord, error)
	RecentScansFn func(ctx context.Context, recordID string, limit int) ([]*models.ScanEvent, error)
	AnalyticsFn   func(ctx context.Context, recordID string) (*ledger.Report, error)
	Records       int
}

func (m *MockQRService) Generate(ctx context.Context, params services.GenerateParams) (*services.GenerateResult, error) {
	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, params)
	}
	return &services.GenerateResult{}, nil
}

func (m *MockQRService) Scan(ctx context.Context, params services.ScanParams) (*services.ScanResult, error) {
	if m.ScanFn != nil {
		return m.ScanFn(ctx, params)
	}
	return &services.ScanResult{}, nil
}

func (m *MockQRService) GetRecord(ctx context.Context, id string) (*models.CodeRecord, error) {
	if m.GetRecordFn != nil {
		return m.GetRecordFn(ctx, id)
	}
	return nil, nil
}

func (m *MockQRService) RecentScans(ctx context.Context, recordID string, limit int) ([]*models.ScanEvent, error) {
	if m.RecentScansFn != nil {
		return m.RecentScansFn(ctx, recordID, limit)
	}
	return nil, nil
}

func (m *MockQRService) Analytics(ctx context.Context, recordID string) (*ledger.Report, error) {
	if m.AnalyticsFn != nil {
		return m.AnalyticsFn(ctx, recordID)
	}
	return &ledger.Report{}, nil
}

func (m *MockQRService) RecordCount(_ context.Context) int {
	return m.Records
}
