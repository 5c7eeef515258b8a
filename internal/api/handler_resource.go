package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-locator/internal/record"
	"github.com/ryanbastic/go-locator/internal/resource"
)

// --- Huma Input/Output types ---

// rawBody captures the request body without huma's schema validation, so
// that decoding failures are reported by the controller as 400s.
type rawBody struct {
	data    []byte
	readErr error
}

func (b *rawBody) read(ctx huma.Context) {
	b.data, b.readErr = io.ReadAll(ctx.BodyReader())
}

type StoreInput struct {
	rawBody
}

func (in *StoreInput) Resolve(ctx huma.Context) []error {
	in.read(ctx)
	return nil
}

type IDInput struct {
	ID string `path:"id" doc:"Record id"`
}

type WriteInput struct {
	ID string `path:"id" doc:"Record id"`
	rawBody
}

func (in *WriteInput) Resolve(ctx huma.Context) []error {
	in.read(ctx)
	return nil
}

type RecordOutput struct {
	Body record.Payload
}

type ListOutput struct {
	Body []record.Payload
}

// --- Handler ---

// ResourceHandler exposes a resource.Controller over HTTP.
type ResourceHandler[T record.Model] struct {
	ctrl   *resource.Controller[T]
	logger *slog.Logger
}

func NewResourceHandler[T record.Model](ctrl *resource.Controller[T], logger *slog.Logger) *ResourceHandler[T] {
	return &ResourceHandler[T]{ctrl: ctrl, logger: logger}
}

// Register implements Resource.
func (h *ResourceHandler[T]) Register(api huma.API) {
	kind := h.ctrl.Kind()
	collection := "/" + kind.Table
	item := collection + "/{id}"
	tags := []string{kind.Table}

	huma.Register(api, huma.Operation{
		OperationID: "list-" + kind.Table,
		Method:      http.MethodGet,
		Path:        collection,
		Summary:     "List all " + kind.Table,
		Tags:        tags,
	}, h.Index)

	huma.Register(api, huma.Operation{
		OperationID:   "create-" + kind.Name,
		Method:        http.MethodPost,
		Path:          collection,
		Summary:       "Create a " + kind.Name,
		Tags:          tags,
		DefaultStatus: http.StatusCreated,
		Description:   "The body is a JSON object holding every field of the " + kind.Name + ".",
	}, h.Store)
	documentBody(api, http.MethodPost, collection, fullSchema(kind))

	huma.Register(api, huma.Operation{
		OperationID: "get-" + kind.Name,
		Method:      http.MethodGet,
		Path:        item,
		Summary:     "Get a " + kind.Name,
		Tags:        tags,
	}, h.Show)

	huma.Register(api, huma.Operation{
		OperationID: "update-" + kind.Name,
		Method:      http.MethodPatch,
		Path:        item,
		Summary:     "Update some fields of a " + kind.Name,
		Tags:        tags,
		Description: "The body is a JSON object holding any subset of the updateable fields. Unknown keys are ignored.",
	}, h.Update)
	documentBody(api, http.MethodPatch, item, partialSchema(kind))

	huma.Register(api, huma.Operation{
		OperationID: "replace-" + kind.Name,
		Method:      http.MethodPut,
		Path:        item,
		Summary:     "Replace every field of a " + kind.Name,
		Tags:        tags,
		Description: "The body is a JSON object holding every field of the " + kind.Name + ".",
	}, h.Replace)
	documentBody(api, http.MethodPut, item, fullSchema(kind))

	huma.Register(api, huma.Operation{
		OperationID:   "delete-" + kind.Name,
		Method:        http.MethodDelete,
		Path:          item,
		Summary:       "Delete a " + kind.Name,
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, h.Delete)

	huma.Register(api, huma.Operation{
		OperationID:   "clear-" + kind.Table,
		Method:        http.MethodDelete,
		Path:          collection,
		Summary:       "Delete all " + kind.Table,
		Tags:          tags,
		DefaultStatus: http.StatusNoContent,
	}, h.Clear)
}

// documentBody publishes the JSON body schema of an operation whose input
// reads the body itself. Setting it after registration keeps huma from
// validating the body, so decoding errors stay 400s from the controller.
func documentBody(api huma.API, method, path string, schema *huma.Schema) {
	item := api.OpenAPI().Paths[path]
	if item == nil {
		return
	}
	var op *huma.Operation
	switch method {
	case http.MethodPost:
		op = item.Post
	case http.MethodPut:
		op = item.Put
	case http.MethodPatch:
		op = item.Patch
	}
	if op == nil {
		return
	}
	op.RequestBody = &huma.RequestBody{
		Required: true,
		Content: map[string]*huma.MediaType{
			"application/json": {Schema: schema},
		},
	}
}

func fieldSchema(c record.Column) *huma.Schema {
	s := &huma.Schema{Type: c.JSON}
	if c.JSON == record.JSONStrings {
		s.Items = &huma.Schema{Type: huma.TypeString}
	}
	return s
}

// fullSchema describes a create or replace body.
func fullSchema[T record.Model](kind *record.Kind[T]) *huma.Schema {
	s := &huma.Schema{
		Type:                 huma.TypeObject,
		Properties:           map[string]*huma.Schema{},
		AdditionalProperties: true,
	}
	for _, c := range kind.Columns {
		s.Properties[c.Name] = fieldSchema(c)
		if !c.Optional {
			s.Required = append(s.Required, c.Name)
		}
	}
	return s
}

// partialSchema describes a partial update body: any subset of the
// updateable fields.
func partialSchema[T record.Model](kind *record.Kind[T]) *huma.Schema {
	s := &huma.Schema{
		Type:                 huma.TypeObject,
		Properties:           map[string]*huma.Schema{},
		AdditionalProperties: true,
	}
	for _, c := range kind.Columns {
		if _, ok := kind.Updaters[c.Name]; ok {
			s.Properties[c.Name] = fieldSchema(c)
		}
	}
	return s
}

func (h *ResourceHandler[T]) Index(ctx context.Context, _ *struct{}) (*ListOutput, error) {
	recs, err := h.ctrl.Index(ctx)
	if err != nil {
		return nil, h.fail("list", err)
	}
	return &ListOutput{Body: recs}, nil
}

func (h *ResourceHandler[T]) Store(ctx context.Context, input *StoreInput) (*RecordOutput, error) {
	if err := bodyErr(input.rawBody); err != nil {
		return nil, err
	}
	rec, err := h.ctrl.Store(ctx, input.data)
	if err != nil {
		return nil, h.fail("create", err)
	}
	return &RecordOutput{Body: rec}, nil
}

func (h *ResourceHandler[T]) Show(ctx context.Context, input *IDInput) (*RecordOutput, error) {
	rec, err := h.ctrl.Show(ctx, input.ID)
	if err != nil {
		return nil, h.fail("get", err)
	}
	return &RecordOutput{Body: rec}, nil
}

func (h *ResourceHandler[T]) Update(ctx context.Context, input *WriteInput) (*RecordOutput, error) {
	if err := bodyErr(input.rawBody); err != nil {
		return nil, err
	}
	rec, err := h.ctrl.Update(ctx, input.ID, input.data)
	if err != nil {
		return nil, h.fail("update", err)
	}
	return &RecordOutput{Body: rec}, nil
}

func (h *ResourceHandler[T]) Replace(ctx context.Context, input *WriteInput) (*RecordOutput, error) {
	if err := bodyErr(input.rawBody); err != nil {
		return nil, err
	}
	rec, err := h.ctrl.Replace(ctx, input.ID, input.data)
	if err != nil {
		return nil, h.fail("replace", err)
	}
	return &RecordOutput{Body: rec}, nil
}

func (h *ResourceHandler[T]) Delete(ctx context.Context, input *IDInput) (*struct{}, error) {
	if err := h.ctrl.Delete(ctx, input.ID); err != nil {
		return nil, h.fail("delete", err)
	}
	return nil, nil
}

func (h *ResourceHandler[T]) Clear(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := h.ctrl.Clear(ctx); err != nil {
		return nil, h.fail("clear", err)
	}
	return nil, nil
}

func bodyErr(b rawBody) error {
	if b.readErr == nil {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(b.readErr, &maxErr) {
		return huma.NewError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return huma.Error400BadRequest("failed to read request body")
}

// fail maps controller errors to HTTP errors. Storage failures are logged
// with their cause and reported without detail.
func (h *ResourceHandler[T]) fail(op string, err error) error {
	kind := h.ctrl.Kind()
	switch {
	case errors.Is(err, resource.ErrBadRequest):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, resource.ErrNotFound):
		return huma.Error404NotFound(kind.Name + " not found")
	default:
		h.logger.Error("failed to "+op+" "+kind.Name, "error", err)
		return huma.Error500InternalServerError("failed to " + op + " " + kind.Name)
	}
}
