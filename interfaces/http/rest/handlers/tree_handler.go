package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/indiafamilytree/familytree/application/services"
	"github.com/indiafamilytree/familytree/domain/core/aggregates"
	"github.com/indiafamilytree/familytree/domain/core/entities"
	"github.com/indiafamilytree/familytree/domain/core/valueobjects"
	apperrors "github.com/indiafamilytree/familytree/pkg/errors"
	"github.com/indiafamilytree/familytree/pkg/utils"
)

// TreeHandler handles tree-related HTTP requests
type TreeHandler struct {
	trees   *services.TreeService
	builder *services.FamilyBuilder
	logger  *zap.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(
	trees *services.TreeService,
	builder *services.FamilyBuilder,
	logger *zap.Logger,
) *TreeHandler {
	return &TreeHandler{
		trees:   trees,
		builder: builder,
		logger:  logger,
	}
}

// InitializeRootRequest represents the request body for creating the root person
type InitializeRootRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Gender string `json:"gender" validate:"required,oneof=male female"`
}

// AttachPersonRequest represents the request body for attaching a person
type AttachPersonRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=200"`
	Gender         string `json:"gender" validate:"required,oneof=male female"`
	Relation       string `json:"relation" validate:"required,oneof=Father Mother Husband Wife Son Daughter"`
	LinkedPersonID string `json:"linkedPersonId,omitempty"`
	LinkedFamilyID string `json:"linkedFamilyId,omitempty"`
}

// UpdatePersonRequest represents the request body for updating a person
type UpdatePersonRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Gender string `json:"gender" validate:"required,oneof=male female"`
}

// ChildRequest is one child entry of an immediate-family request
type ChildRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=200"`
	Gender string `json:"gender" validate:"required,oneof=male female"`
}

// ImmediateFamilyRequest represents the request body for building an immediate family
type ImmediateFamilyRequest struct {
	AnchorPersonID string         `json:"anchorPersonId" validate:"required"`
	SpouseName     string         `json:"spouseName,omitempty" validate:"omitempty,min=1,max=200"`
	Children       []ChildRequest `json:"children,omitempty" validate:"omitempty,dive"`
}

// AncestralFamilyRequest represents the request body for building an ancestral family
type AncestralFamilyRequest struct {
	DescendantPersonID string `json:"descendantPersonId" validate:"required"`
	FatherName         string `json:"fatherName,omitempty" validate:"omitempty,min=1,max=200"`
	MotherName         string `json:"motherName,omitempty" validate:"omitempty,min=1,max=200"`
}

// ImportRequest represents the request body for importing an exported person list
type ImportRequest struct {
	Persons []aggregates.ImportEntry `json:"persons" validate:"required,min=1"`
}

// PersonResponse is the wire form of a person
type PersonResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
}

// FamilyResponse is the wire form of a family
type FamilyResponse struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Members []entities.Member `json:"members"`
}

// TreeResponse is the wire form of the whole graph
type TreeResponse struct {
	RootPersonID string             `json:"rootPersonId,omitempty"`
	Persons      []PersonResponse   `json:"persons"`
	Families     []FamilyResponse   `json:"families"`
	Nodes        []*aggregates.Node `json:"nodes"`
	Edges        []*aggregates.Edge `json:"edges"`
}

// InitializeRoot handles POST /tree/root
func (h *TreeHandler) InitializeRoot(w http.ResponseWriter, r *http.Request) {
	var req InitializeRootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	person, err := h.trees.InitializeRoot(req.Name, req.Gender)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toPersonResponse(person))
}

// AttachPerson handles POST /persons
func (h *TreeHandler) AttachPerson(w http.ResponseWriter, r *http.Request) {
	var req AttachPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	person, err := h.trees.AttachPerson(req.Name, req.Gender, req.Relation, req.LinkedPersonID, req.LinkedFamilyID)
	if err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, toPersonResponse(person))
}

// UpdatePerson handles PUT /persons/{personID}
func (h *TreeHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	var req UpdatePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.trees.UpdatePerson(personID, req.Name, req.Gender); err != nil {
		h.respondAppError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":      personID,
		"message": "Person updated",
	})
}

// ImportPersons handles POST /persons/import
func (h *TreeHandler) ImportPersons(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if err := h.trees.ImportPersons(req.Persons); err != nil {
		// The import keeps whatever it could attach; report the rest.
		h.logger.Warn("Import completed with failures", zap.Error(err))
		h.respondJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"message": "Import completed with failures",
			"detail":  err.Error(),
		})
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Import complete",
		"imported": len(req.Persons),
	})
}

// CreateImmediateFamily handles POST /families/immediate
func (h *TreeHandler) CreateImmediateFamily(w http.ResponseWriter, r *http.Request) {
	var req ImmediateFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	anchorID, err := parseEntityID(req.AnchorPersonID, "anchorPersonId")
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	children := make([]services.ChildInput, 0, len(req.Children))
	for _, c := range req.Children {
		children = append(children, services.ChildInput{Name: c.Name, Gender: c.Gender})
	}

	family, err := h.builder.CreateImmediateFamily(anchorID, req.SpouseName, children)
	if family == nil {
		h.respondAppError(w, err)
		return
	}
	if err != nil {
		h.logger.Warn("Immediate family built with failures", zap.Error(err))
	}
	h.respondJSON(w, http.StatusCreated, toFamilyResponse(family))
}

// CreateAncestralFamily handles POST /families/ancestral
func (h *TreeHandler) CreateAncestralFamily(w http.ResponseWriter, r *http.Request) {
	var req AncestralFamilyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	descendantID, err := parseEntityID(req.DescendantPersonID, "descendantPersonId")
	if err != nil {
		h.respondAppError(w, err)
		return
	}

	family, err := h.builder.CreateAncestralFamily(descendantID, req.FatherName, req.MotherName)
	if family == nil {
		h.respondAppError(w, err)
		return
	}
	if err != nil {
		h.logger.Warn("Ancestral family built with failures", zap.Error(err))
	}
	h.respondJSON(w, http.StatusCreated, toFamilyResponse(family))
}

// GetTree handles GET /tree
func (h *TreeHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	overview := h.trees.Overview()

	resp := TreeResponse{
		Persons:  make([]PersonResponse, 0, len(overview.Persons)),
		Families: make([]FamilyResponse, 0, len(overview.Families)),
		Nodes:    overview.Nodes,
		Edges:    overview.Edges,
	}
	if overview.Root != nil {
		resp.RootPersonID = overview.Root.ID().String()
	}
	for _, p := range overview.Persons {
		resp.Persons = append(resp.Persons, toPersonResponse(p))
	}
	for _, f := range overview.Families {
		resp.Families = append(resp.Families, toFamilyResponse(f))
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// GetGenerations handles GET /tree/generations
func (h *TreeHandler) GetGenerations(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"maxGeneration": h.trees.MaxGeneration(),
	})
}

func toPersonResponse(p *entities.Person) PersonResponse {
	return PersonResponse{
		ID:     p.ID().String(),
		Name:   p.Name(),
		Gender: p.Gender().String(),
	}
}

func toFamilyResponse(f *entities.Family) FamilyResponse {
	return FamilyResponse{
		ID:      f.ID().String(),
		Name:    f.Signature(),
		Members: f.Members(),
	}
}

func parseEntityID(raw, field string) (valueobjects.EntityID, error) {
	id, err := valueobjects.NewEntityIDFromString(raw)
	if err != nil {
		return valueobjects.EntityID{}, apperrors.NewValidationError(field + ": " + err.Error())
	}
	return id, nil
}

func (h *TreeHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *TreeHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    status,
	})
}

func (h *TreeHandler) respondAppError(w http.ResponseWriter, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		h.respondError(w, appErr.HTTPStatus, appErr.Message)
		return
	}
	h.logger.Error("Unhandled error", zap.Error(err))
	h.respondError(w, http.StatusInternalServerError, "Internal server error")
}
