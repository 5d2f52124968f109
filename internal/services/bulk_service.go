package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/footprint-shop/api/internal/archive"
	domain "github.com/footprint-shop/api/internal/domain"
	"github.com/footprint-shop/api/internal/fulfillment"
	"github.com/footprint-shop/api/internal/printfile"
	"github.com/footprint-shop/api/internal/repositories"
	"github.com/footprint-shop/api/internal/storage"
)

const archiveExpiry = time.Hour

// PrintPackager produces one archive entry per order.
type PrintPackager interface {
	Package(ctx context.Context, order domain.Order) (printfile.File, printfile.Outcome)
}

type bulkService struct {
	orders   repositories.OrderRepository
	packager PrintPackager
	gateway  storage.Gateway
	audit    AuditLogService
	notifier Notifier
	clock    func() time.Time
	newID    func() string
	log      LogFunc
}

// BulkServiceDeps bundles collaborators for the bulk operations service.
type BulkServiceDeps struct {
	Orders      repositories.OrderRepository
	Packager    PrintPackager
	Storage     storage.Gateway
	Audit       AuditLogService
	Notifier    Notifier
	Clock       func() time.Time
	IDGenerator func() string
	Logger      LogFunc
}

// NewBulkService wires the bulk operations coordinator.
func NewBulkService(deps BulkServiceDeps) (BulkService, error) {
	if deps.Orders == nil {
		return nil, fmt.Errorf("bulk service: order repository is required")
	}
	if deps.Packager == nil {
		return nil, fmt.Errorf("bulk service: packager is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("bulk service: storage gateway is required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("bulk service: audit log service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := deps.IDGenerator
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	log := deps.Logger
	if log == nil {
		log = noopLog
	}

	return &bulkService{
		orders:   deps.Orders,
		packager: deps.Packager,
		gateway:  deps.Storage,
		audit:    deps.Audit,
		notifier: notifier,
		clock:    func() time.Time { return clock().UTC() },
		newID:    newID,
		log:      log,
	}, nil
}

// validateBatchIDs enforces the shared batch limits and trims ids.
func validateBatchIDs(orderIDs []string) ([]string, error) {
	ids := make([]string, 0, len(orderIDs))
	for _, id := range orderIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyOrders, len(ids), MaxBatchSize)
	}
	return ids, nil
}

// lookupOrders fetches the batch and splits requested ids into found
// orders (request order preserved) and missing ids.
func (s *bulkService) lookupOrders(ctx context.Context, ids []string) ([]domain.Order, []string, error) {
	fetched, err := s.orders.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("bulk service: fetch orders: %w", err)
	}
	byID := make(map[string]domain.Order, len(fetched))
	for _, order := range fetched {
		byID[order.ID] = order
	}

	found := make([]domain.Order, 0, len(fetched))
	notFound := make([]string, 0)
	for _, id := range ids {
		if order, ok := byID[id]; ok {
			found = append(found, order)
		} else {
			notFound = append(notFound, id)
		}
	}
	return found, notFound, nil
}

func (s *bulkService) UpdateStatuses(ctx context.Context, cmd BulkStatusCommand) (BulkStatusResult, error) {
	ids, err := validateBatchIDs(cmd.OrderIDs)
	if err != nil {
		return BulkStatusResult{}, err
	}
	if !fulfillment.IsValidStatus(string(cmd.Target)) {
		return BulkStatusResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, cmd.Target)
	}

	found, notFound, err := s.lookupOrders(ctx, ids)
	if err != nil {
		return BulkStatusResult{}, err
	}
	if len(found) == 0 {
		return BulkStatusResult{}, ErrNoOrdersFound
	}

	items := make([]fulfillment.BatchItem, 0, len(found))
	byID := make(map[string]domain.Order, len(found))
	for _, order := range found {
		items = append(items, fulfillment.BatchItem{OrderID: order.ID, Status: order.Status})
		byID[order.ID] = order
	}
	validated := fulfillment.ValidateBatch(items, cmd.Target)

	result := BulkStatusResult{
		Updated:  make([]string, 0, len(validated.Valid)),
		Invalid:  validated.Invalid,
		NotFound: notFound,
		Failed:   make([]string, 0),
	}

	now := s.clock()
	for _, orderID := range validated.Valid {
		if err := s.orders.UpdateStatus(ctx, orderID, cmd.Target, now); err != nil {
			s.log(ctx, "bulk.status_update_failed", map[string]any{
				"orderId": orderID,
				"target":  string(cmd.Target),
				"error":   err.Error(),
			})
			result.Failed = append(result.Failed, orderID)
			continue
		}
		result.Updated = append(result.Updated, orderID)

		order := byID[orderID]
		previous := order.Status
		order.Status = cmd.Target
		s.notifier.OrderStatusChanged(ctx, order, previous)
	}

	s.audit.Record(ctx, AuditRecord{
		ActorID:   cmd.ActorID,
		Action:    "orders.bulk_status",
		TargetRef: fmt.Sprintf("orders:%d", len(ids)),
		Details: map[string]any{
			"target":   string(cmd.Target),
			"updated":  len(result.Updated),
			"invalid":  len(result.Invalid),
			"notFound": len(result.NotFound),
			"failed":   len(result.Failed),
		},
		OccurredAt: now,
	})
	return result, nil
}

func (s *bulkService) BuildDownloadArchive(ctx context.Context, cmd BulkDownloadCommand) (BulkDownloadResult, error) {
	ids, err := validateBatchIDs(cmd.OrderIDs)
	if err != nil {
		return BulkDownloadResult{}, err
	}

	found, notFound, err := s.lookupOrders(ctx, ids)
	if err != nil {
		return BulkDownloadResult{}, err
	}
	if len(found) == 0 {
		return BulkDownloadResult{}, ErrNoOrdersFound
	}

	files := make([]printfile.File, 0, len(found))
	entries := make([]archive.ManifestEntry, 0, len(ids))
	skipped := make([]string, 0)
	failed := make([]string, 0)

	for _, order := range found {
		file, outcome := s.packager.Package(ctx, order)
		entries = append(entries, archive.ManifestEntry{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      string(outcome.Kind),
			Reason:      outcome.Reason,
		})
		switch outcome.Kind {
		case printfile.OutcomeSuccess:
			files = append(files, file)
		case printfile.OutcomeSkipped:
			skipped = append(skipped, order.ID)
			s.log(ctx, "bulk.download_order_skipped", map[string]any{
				"orderId": order.ID,
				"reason":  outcome.Reason,
			})
		case printfile.OutcomeFailed:
			failed = append(failed, order.ID)
			s.log(ctx, "bulk.download_order_failed", map[string]any{
				"orderId": order.ID,
				"reason":  outcome.Reason,
			})
		}
	}

	// The manifest carries one entry per requested id, so missing orders
	// show up alongside the packaged ones.
	for _, orderID := range notFound {
		entries = append(entries, archive.ManifestEntry{
			OrderID: orderID,
			Status:  "not_found",
			Reason:  "Order not found",
		})
	}

	if len(files) == 0 {
		return BulkDownloadResult{}, fmt.Errorf(
			"%w: %d skipped, %d failed, %d not found", ErrNoValidFiles, len(skipped), len(failed), len(notFound))
	}

	now := s.clock()
	manifest := archive.Manifest{
		GeneratedAt: now,
		Requested:   len(ids),
		Included:    len(files),
		Skipped:     len(skipped),
		Failed:      len(failed),
		NotFound:    len(notFound),
		Entries:     entries,
	}
	zipData, err := archive.Assemble(files, manifest)
	if err != nil {
		return BulkDownloadResult{}, fmt.Errorf("bulk service: assemble archive: %w", err)
	}

	suffix := strings.ToLower(s.newID())
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	fileName := archive.FileName(now, suffix)

	key := s.gateway.GenerateKey(storage.FolderBulkDownloads, cmd.ActorID, "zip")
	if _, err := s.gateway.Upload(ctx, key, zipData, "application/zip"); err != nil {
		return BulkDownloadResult{}, fmt.Errorf("bulk service: upload archive: %w", err)
	}
	downloadURL, err := s.gateway.PresignDownload(ctx, key, archiveExpiry)
	if err != nil {
		return BulkDownloadResult{}, fmt.Errorf("bulk service: presign archive: %w", err)
	}

	s.audit.Record(ctx, AuditRecord{
		ActorID:   cmd.ActorID,
		Action:    "orders.bulk_download",
		TargetRef: key,
		Details: map[string]any{
			"fileName":  fileName,
			"fileCount": len(files),
			"skipped":   len(skipped),
			"failed":    len(failed),
			"notFound":  len(notFound),
		},
		OccurredAt: now,
	})

	return BulkDownloadResult{
		DownloadURL: downloadURL,
		FileName:    fileName,
		FileCount:   len(files),
		ExpiresIn:   archiveExpiry,
		Skipped:     skipped,
		NotFound:    notFound,
		Failed:      failed,
	}, nil
}
