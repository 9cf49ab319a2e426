package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/aggregate"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/pipeline"
	"github.com/joseph-ayodele/fiscal-extract/internal/repository"
	"github.com/joseph-ayodele/fiscal-extract/internal/upstream"
)

const defaultListLimit = 50

type ExtractionService struct {
	converter *pipeline.Converter
	decoder   *upstream.Decoder
	processor *pipeline.Processor
	jobs      repository.ImportJobRepository
	items     repository.OrderItemRepository
	flags     aggregate.Flags
	logger    *slog.Logger
}

type ServiceOption func(*ExtractionService)

// WithImports enables ImportFile, ListImports and ListItems.
func WithImports(proc *pipeline.Processor, jobs repository.ImportJobRepository, items repository.OrderItemRepository) ServiceOption {
	return func(s *ExtractionService) {
		s.processor, s.jobs, s.items = proc, jobs, items
	}
}

// WithFlags sets the inclusion flags used when a request brings none.
func WithFlags(f aggregate.Flags) ServiceOption {
	return func(s *ExtractionService) { s.flags = f }
}

func NewExtractionService(conv *pipeline.Converter, dec *upstream.Decoder, logger *slog.Logger, opts ...ServiceOption) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ExtractionService{converter: conv, decoder: dec, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

type extractRequest struct {
	Family string          `json:"family"`
	Pages  []string        `json:"pages"`
	Rows   json.RawMessage `json:"rows"`
	CNPJ   string          `json:"cnpj"`
}

type itemsResponse struct {
	Items   []entity.CanonicalItem `json:"items"`
	Count   int                    `json:"count"`
	Summary *aggregate.Summary     `json:"summary,omitempty"`
}

// ExtractDocument converts page text and/or upstream-shaped rows sent
// inline. Rows use the extraction service answer layout of the family.
func (s *ExtractionService) ExtractDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req extractRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, common.ToStatus(err)
	}
	family, ok := constants.ParseFamily(req.Family)
	if !ok {
		return nil, common.InvalidArgumentError("unknown family: " + req.Family)
	}

	var doc entity.Document
	if rows := bytes.TrimSpace(req.Rows); len(rows) > 0 && !bytes.Equal(rows, []byte("null")) {
		var err error
		if family == constants.FamilyPaymentDocument {
			doc, err = s.decoder.DecodePayment(rows)
		} else {
			doc, err = s.decoder.DecodeTaxStatus(rows)
		}
		if err != nil {
			s.logger.Warn("server.extract.rows_invalid", "req_id", common.RequestIDFromContext(ctx), "error", err)
			return nil, common.ToStatus(err)
		}
	}
	doc.Family = family
	doc.Source = "grpc"
	doc.Pages = append(doc.Pages, req.Pages...)
	if cnpj := strings.TrimSpace(req.CNPJ); cnpj != "" {
		doc.CNPJ = cnpj
	}

	items, err := s.converter.Convert(ctx, doc)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	sum := aggregate.Summarize(items, s.flags)
	return encodeResponse(itemsResponse{Items: items, Count: len(items), Summary: &sum})
}

type importRequest struct {
	Path   string `json:"path"`
	Family string `json:"family"`
}

type importResponse struct {
	Import    *entity.ImportJob      `json:"import"`
	Items     []entity.CanonicalItem `json:"items"`
	Duplicate bool                   `json:"duplicate"`
}

func (s *ExtractionService) ImportFile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.processor == nil {
		return nil, status.Error(codes.Unimplemented, "imports are not configured")
	}
	var req importRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, common.ToStatus(err)
	}
	v := common.NewValidator().Field("path", req.Path, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	family, ok := constants.ParseFamily(req.Family)
	if !ok {
		return nil, common.InvalidArgumentError("unknown family: " + req.Family)
	}

	out, err := s.processor.ProcessFile(ctx, req.Path, family)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return encodeResponse(importResponse{Import: out.Job, Items: out.Items, Duplicate: out.Duplicate})
}

type listImportsRequest struct {
	Limit int `json:"limit"`
}

func (s *ExtractionService) ListImports(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil {
		return nil, status.Error(codes.Unimplemented, "imports are not configured")
	}
	var req listImportsRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, common.ToStatus(err)
	}
	if req.Limit <= 0 {
		req.Limit = defaultListLimit
	}
	jobs, err := s.jobs.List(ctx, req.Limit)
	if err != nil {
		s.logger.Error("server.imports.list_failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return encodeResponse(map[string]any{"imports": jobs, "count": len(jobs)})
}

type listItemsRequest struct {
	ImportID string `json:"import_id"`
}

func (s *ExtractionService) ListItems(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.jobs == nil || s.items == nil {
		return nil, status.Error(codes.Unimplemented, "imports are not configured")
	}
	var req listItemsRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, common.ToStatus(err)
	}
	id, err := uuid.Parse(strings.TrimSpace(req.ImportID))
	if err != nil {
		return nil, common.InvalidArgumentError("import_id must be a UUID")
	}
	if _, err := s.jobs.GetByID(ctx, id); err != nil {
		return nil, common.ToStatus(err)
	}
	items, err := s.items.ListByImport(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return encodeResponse(itemsResponse{Items: items, Count: len(items)})
}

type summarizeRequest struct {
	Items []entity.CanonicalItem `json:"items"`
	Flags map[string]bool        `json:"flags"`
}

// Summarize totals the given items. Request flags override the service
// flags type by type.
func (s *ExtractionService) Summarize(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req summarizeRequest
	if err := decodeRequest(in, &req); err != nil {
		return nil, common.ToStatus(err)
	}
	flags := aggregate.Flags{}
	for t, v := range s.flags {
		flags[t] = v
	}
	for t, v := range req.Flags {
		flags[constants.TaxType(strings.ToUpper(strings.TrimSpace(t)))] = v
	}
	return encodeResponse(aggregate.Summarize(req.Items, flags))
}
