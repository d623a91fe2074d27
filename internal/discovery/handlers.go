package discovery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/amoryn-app/amoryn-backend/internal/common/utils"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// callerID pulls the authenticated user from the request context,
// rejecting requests that reached a handler without the auth
// middleware in front of it.
func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value("userID").(int64)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Missing authentication context")
	}
	return userID, ok
}

func (h *Handler) GetCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	candidates, err := h.service.GetDiscoveryCandidates(r.Context(), userID, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, candidates)
}

func (h *Handler) GetFilteredCandidates(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var dto FilteredDiscoveryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := dto.Limit
	if limit == 0 {
		limit = 20
	}

	candidates, err := h.service.GetFilteredDiscoveryCandidates(r.Context(), userID, dto.Filters, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, candidates)
}

func (h *Handler) GetTopPicks(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	picks, err := h.service.GetTopPicks(r.Context(), userID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, picks)
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.swipe(w, r, func(userID, targetID int64) (*SwipeResult, error) {
		return h.service.Like(r.Context(), userID, targetID)
	})
}

func (h *Handler) SuperLike(w http.ResponseWriter, r *http.Request) {
	h.swipe(w, r, func(userID, targetID int64) (*SwipeResult, error) {
		return h.service.SuperLike(r.Context(), userID, targetID)
	})
}

func (h *Handler) swipe(w http.ResponseWriter, r *http.Request, do func(userID, targetID int64) (*SwipeResult, error)) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	targetID, err := h.targetID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	result, err := do(userID, targetID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	targetID, err := h.targetID(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid target ID")
		return
	}

	if err := h.service.Pass(r.Context(), userID, targetID); err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) Rewind(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	if err := h.service.RewindLastAction(r.Context(), userID); err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) CanAccess(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	itemType, targetID, err := h.itemParams(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	decision, err := h.service.CanAccess(r.Context(), userID, itemType, targetID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, decision)
}

func (h *Handler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var dto UnlockDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	unlock, err := h.service.Unlock(r.Context(), userID, ItemType(dto.ItemType), dto.TargetID, dto.PaymentRef)
	if err != nil {
		h.respondError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, UnlockResult{Method: unlock.Method})
}

func (h *Handler) targetID(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	return strconv.ParseInt(vars["targetId"], 10, 64)
}

func (h *Handler) itemParams(r *http.Request) (ItemType, int64, error) {
	vars := mux.Vars(r)

	itemType := ItemType(vars["itemType"])
	switch itemType {
	case ItemProfile, ItemMatch, ItemLike:
	default:
		return "", 0, ErrInvalidItemType
	}

	targetID, err := strconv.ParseInt(vars["targetId"], 10, 64)
	if err != nil {
		return "", 0, errors.New("invalid target ID")
	}

	return itemType, targetID, nil
}

// respondError maps domain errors onto HTTP statuses. Quota denials
// carry the unlock cost so the client can render a paywall.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if qe, ok := IsQuotaExceeded(err); ok {
		utils.RespondWithJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"error":     "payment_required",
			"item_type": qe.ItemType,
			"cost":      qe.Cost,
		})
		return
	}

	switch {
	case errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrMatchNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrPremiumRequired):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrCannotSwipeSelf), errors.Is(err, ErrNothingToRewind), errors.Is(err, ErrInvalidItemType):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrSuperLikeLimit):
		utils.RespondWithError(w, http.StatusTooManyRequests, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Something went wrong")
	}
}
