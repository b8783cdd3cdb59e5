package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/desertcandleworks/backend-store/internal/common"
	dbgen "github.com/desertcandleworks/backend-store/internal/db/gen"
)

// AdminQuerier captures the CRUD database methods used by the handlers.
type AdminQuerier interface {
	InsertScent(ctx context.Context, arg dbgen.InsertScentParams) (dbgen.Scent, error)
	ListScents(ctx context.Context) ([]dbgen.Scent, error)
	UpdateScent(ctx context.Context, arg dbgen.UpdateScentParams) error
	DeleteScent(ctx context.Context, id pgtype.UUID) error
	ListBlends(ctx context.Context) ([]dbgen.Blend, error)
	ListBlendComponents(ctx context.Context, blendID pgtype.UUID) ([]dbgen.ListBlendComponentsRow, error)
	DeleteBlend(ctx context.Context, id pgtype.UUID) error
	InsertContainer(ctx context.Context, arg dbgen.InsertContainerParams) (dbgen.Container, error)
	ListContainers(ctx context.Context) ([]dbgen.Container, error)
	DeleteContainer(ctx context.Context, id pgtype.UUID) error
	InsertRecipe(ctx context.Context, arg dbgen.InsertRecipeParams) (dbgen.Recipe, error)
	UpdateRecipe(ctx context.Context, arg dbgen.UpdateRecipeParams) (dbgen.Recipe, error)
	DeleteRecipe(ctx context.Context, id pgtype.UUID) error
	ListRecipes(ctx context.Context) ([]dbgen.Recipe, error)
	GetRecipeByID(ctx context.Context, id pgtype.UUID) (dbgen.Recipe, error)
}

// Handler exposes the admin recipe and materials endpoints.
type Handler struct {
	Q        AdminQuerier
	Svc      *Service
	Validate *validator.Validate
}

type scentPayload struct {
	Name           string `json:"name" validate:"required,max=100"`
	CostPerOzCents int64  `json:"costPerOzCents" validate:"min=0"`
}

func (h *Handler) CreateScent(w http.ResponseWriter, r *http.Request) {
	var in scentPayload
	if !h.decode(w, r, &in) {
		return
	}
	s, err := h.Q.InsertScent(r.Context(), dbgen.InsertScentParams{Name: in.Name, CostPerOzCents: in.CostPerOzCents})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create scent", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": scentDTO(s)})
}

func (h *Handler) ListScents(w http.ResponseWriter, r *http.Request) {
	scents, err := h.Q.ListScents(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list scents", nil)
		return
	}
	out := make([]map[string]any, 0, len(scents))
	for _, s := range scents {
		out = append(out, scentDTO(s))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) UpdateScent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var in scentPayload
	if !h.decode(w, r, &in) {
		return
	}
	if err := h.Q.UpdateScent(r.Context(), dbgen.UpdateScentParams{ID: id, Name: in.Name, CostPerOzCents: in.CostPerOzCents}); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update scent", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteScent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Q.DeleteScent(r.Context(), id); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete scent", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateBlend(w http.ResponseWriter, r *http.Request) {
	var in BlendInput
	if !h.decode(w, r, &in) {
		return
	}
	blend, err := h.Svc.CreateBlend(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrBlendPercents) {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create blend", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
		"id":   uuidString(blend.ID),
		"name": blend.Name,
	}})
}

func (h *Handler) ListBlends(w http.ResponseWriter, r *http.Request) {
	blends, err := h.Q.ListBlends(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list blends", nil)
		return
	}
	out := make([]map[string]any, 0, len(blends))
	for _, b := range blends {
		components, err := h.Q.ListBlendComponents(r.Context(), b.ID)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list blends", nil)
			return
		}
		out = append(out, blendDTO(b, components))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) DeleteBlend(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Q.DeleteBlend(r.Context(), id); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete blend", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type containerPayload struct {
	Name      string  `json:"name" validate:"required,max=100"`
	CostCents int64   `json:"costCents" validate:"min=0"`
	WaterOz   float64 `json:"waterOz" validate:"gt=0"`
}

func (h *Handler) CreateContainer(w http.ResponseWriter, r *http.Request) {
	var in containerPayload
	if !h.decode(w, r, &in) {
		return
	}
	c, err := h.Q.InsertContainer(r.Context(), dbgen.InsertContainerParams{Name: in.Name, CostCents: in.CostCents, WaterOz: in.WaterOz})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create container", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": containerDTO(c)})
}

func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := h.Q.ListContainers(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list containers", nil)
		return
	}
	out := make([]map[string]any, 0, len(containers))
	for _, c := range containers {
		out = append(out, containerDTO(c))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) DeleteContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Q.DeleteContainer(r.Context(), id); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete container", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recipePayload struct {
	Name             string  `json:"name" validate:"required,max=100"`
	BlendID          string  `json:"blendId" validate:"required,uuid4"`
	ContainerID      string  `json:"containerId" validate:"required,uuid4"`
	WickCostCents    int64   `json:"wickCostCents" validate:"min=0"`
	WaxRatio         float64 `json:"waxRatio" validate:"gt=0,lte=2"`
	FragranceLoad    float64 `json:"fragranceLoad" validate:"gte=0,lte=0.15"`
	TargetPriceCents int64   `json:"targetPriceCents" validate:"min=0"`
}

func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	var in recipePayload
	if !h.decode(w, r, &in) {
		return
	}
	blendID, err1 := parseUUID(in.BlendID)
	containerID, err2 := parseUUID(in.ContainerID)
	if err1 != nil || err2 != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid blend or container id", nil)
		return
	}
	rec, err := h.Q.InsertRecipe(r.Context(), dbgen.InsertRecipeParams{
		Name:             in.Name,
		BlendID:          blendID,
		ContainerID:      containerID,
		WickCostCents:    in.WickCostCents,
		WaxRatio:         in.WaxRatio,
		FragranceLoad:    in.FragranceLoad,
		TargetPriceCents: in.TargetPriceCents,
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create recipe", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": recipeDTO(rec)})
}

func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var in recipePayload
	if !h.decode(w, r, &in) {
		return
	}
	blendID, err1 := parseUUID(in.BlendID)
	containerID, err2 := parseUUID(in.ContainerID)
	if err1 != nil || err2 != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid blend or container id", nil)
		return
	}
	rec, err := h.Q.UpdateRecipe(r.Context(), dbgen.UpdateRecipeParams{
		ID:               id,
		Name:             in.Name,
		BlendID:          blendID,
		ContainerID:      containerID,
		WickCostCents:    in.WickCostCents,
		WaxRatio:         in.WaxRatio,
		FragranceLoad:    in.FragranceLoad,
		TargetPriceCents: in.TargetPriceCents,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "recipe not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update recipe", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": recipeDTO(rec)})
}

func (h *Handler) ListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.Q.ListRecipes(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list recipes", nil)
		return
	}
	out := make([]map[string]any, 0, len(recipes))
	for _, rec := range recipes {
		out = append(out, recipeDTO(rec))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.Q.DeleteRecipe(r.Context(), id); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to delete recipe", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cost serves the derived material cost breakdown for one recipe.
func (h *Handler) Cost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	breakdown, err := h.Svc.CostForRecipe(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "recipe not found", nil)
		case errors.Is(err, ErrBlendPercents):
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_BLEND", err.Error(), nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute recipe cost", nil)
		}
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": breakdown})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
			return false
		}
	}
	return true
}

func scentDTO(s dbgen.Scent) map[string]any {
	return map[string]any{
		"id":             uuidString(s.ID),
		"name":           s.Name,
		"costPerOzCents": s.CostPerOzCents,
	}
}

func blendDTO(b dbgen.Blend, components []dbgen.ListBlendComponentsRow) map[string]any {
	comps := make([]map[string]any, 0, len(components))
	for _, c := range components {
		comps = append(comps, map[string]any{
			"scentId":        uuidString(c.ScentID),
			"scentName":      c.ScentName,
			"percent":        c.Percent,
			"costPerOzCents": c.CostPerOzCents,
		})
	}
	return map[string]any{
		"id":         uuidString(b.ID),
		"name":       b.Name,
		"components": comps,
	}
}

func containerDTO(c dbgen.Container) map[string]any {
	return map[string]any{
		"id":        uuidString(c.ID),
		"name":      c.Name,
		"costCents": c.CostCents,
		"waterOz":   c.WaterOz,
	}
}

func recipeDTO(r dbgen.Recipe) map[string]any {
	return map[string]any{
		"id":               uuidString(r.ID),
		"name":             r.Name,
		"blendId":          uuidString(r.BlendID),
		"containerId":      uuidString(r.ContainerID),
		"wickCostCents":    r.WickCostCents,
		"waxRatio":         r.WaxRatio,
		"fragranceLoad":    r.FragranceLoad,
		"targetPriceCents": r.TargetPriceCents,
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (pgtype.UUID, bool) {
	raw := chi.URLParam(r, "id")
	parsed, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid id", nil)
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, true
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return fmt.Sprintf("%x-%x-%x-%x-%x", id.Bytes[0:4], id.Bytes[4:6], id.Bytes[6:8], id.Bytes[8:10], id.Bytes[10:16])
}
