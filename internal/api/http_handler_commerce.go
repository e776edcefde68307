package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/cart"
	"storefront-service/internal/domain"
	"storefront-service/internal/inquiry"
	"storefront-service/internal/store"
)

// --- Cart Handlers ---

// CartResponse is the authoritative reconciled cart snapshot returned by
// every cart operation; clients overwrite local state with it.
type CartResponse struct {
	Cart domain.CartData `json:"cart"`
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondWithError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	snapshot, err := h.carts.Snapshot(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR: GetCart failed for user %s: %v", userID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve cart")
		return
	}
	respondWithJSON(w, http.StatusOK, CartResponse{Cart: snapshot})
}

// CartItemInput defines the expected input for cart add/update operations.
type CartItemInput struct {
	UserID    string `json:"user_id" validate:"required"`
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type cartMutation func(ctx context.Context, userID, productID, size string, quantity int) (domain.CartData, error)

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, h.carts.AddItem)
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateCart(w, r, h.carts.UpdateItem)
}

func (h *HTTPHandler) mutateCart(w http.ResponseWriter, r *http.Request, op cartMutation) {
	var input CartItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	snapshot, err := op(r.Context(), input.UserID, input.ProductID, input.Size, input.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrInvalidSize) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("ERROR: cart mutation failed for user %s: %v", input.UserID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update cart")
		return
	}
	respondWithJSON(w, http.StatusOK, CartResponse{Cart: snapshot})
}

// ClearCartInput defines the expected input for clearing a cart.
type ClearCartInput struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	var input ClearCartInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	if err := h.carts.Clear(r.Context(), input.UserID); err != nil {
		log.Printf("ERROR: ClearCart failed for user %s: %v", input.UserID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}
	respondWithJSON(w, http.StatusOK, CartResponse{Cart: domain.CartData{}})
}

// --- Inquiry Handlers ---

// InquiryItemInput is one line of a guest-submitted cart snapshot.
type InquiryItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// InquiryAttachmentInput is a file attachment in transport-safe form.
type InquiryAttachmentInput struct {
	Filename    string `json:"filename" validate:"required,max=255"`
	ContentType string `json:"content_type"`
	Content     string `json:"content" validate:"required"`
}

// InquiryCreateInput defines the expected input for submitting an inquiry.
// Signed-in requesters send user_id and the server cart snapshot is used;
// guests send explicit items instead.
type InquiryCreateInput struct {
	UserID      *string                  `json:"user_id"`
	Email       string                   `json:"email" validate:"required,email"`
	Name        string                   `json:"name" validate:"max=255"`
	Phone       string                   `json:"phone" validate:"max=64"`
	Message     string                   `json:"message" validate:"max=4000"`
	Items       []InquiryItemInput       `json:"items" validate:"omitempty,dive"`
	Attachments []InquiryAttachmentInput `json:"attachments" validate:"omitempty,dive"`
}

func (h *HTTPHandler) CreateInquiry(w http.ResponseWriter, r *http.Request) {
	var input InquiryCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	snapshot, err := h.inquiryCartSnapshot(r.Context(), input)
	if err != nil {
		log.Printf("ERROR: CreateInquiry failed to build cart snapshot: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load cart for inquiry")
		return
	}
	if len(snapshot) == 0 {
		respondWithError(w, http.StatusBadRequest, "Unable to create inquiry with an empty cart")
		return
	}

	contact := inquiry.Contact{
		UserID: input.UserID,
		Email:  input.Email,
		Name:   input.Name,
		Phone:  input.Phone,
	}
	attachments := make([]inquiry.Attachment, 0, len(input.Attachments))
	for _, att := range input.Attachments {
		attachments = append(attachments, inquiry.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     att.Content,
		})
	}

	created, err := h.submitter.Submit(r.Context(), contact, snapshot, input.Message, attachments)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusCreated, created)
	case errors.Is(err, inquiry.ErrEmptyCart):
		respondWithError(w, http.StatusBadRequest, "Unable to create inquiry with provided products")
	case errors.Is(err, inquiry.ErrInquiryNotCreated):
		// Fully retryable: nothing was persisted, no email was attempted.
		log.Printf("ERROR: CreateInquiry store phase failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Could not create inquiry request")
	case errors.Is(err, inquiry.ErrEmailDeliveryFailed):
		// Partial: the inquiry exists but needs a targeted resend, not a
		// cart resubmission. Return the created record with the error.
		log.Printf("WARN: CreateInquiry email phase failed: %v", err)
		respondWithJSON(w, http.StatusBadGateway, struct {
			ErrorResponse
			Inquiry *domain.Inquiry `json:"inquiry"`
		}{
			ErrorResponse: ErrorResponse{
				Error:  "Inquiry created but notification email failed",
				Detail: err.Error(),
			},
			Inquiry: created,
		})
	default:
		log.Printf("ERROR: CreateInquiry failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to submit inquiry")
	}
}

// inquiryCartSnapshot picks the cart source: the server-side cart for
// signed-in requesters, explicit items for guests. Both pass through the
// reconciler.
func (h *HTTPHandler) inquiryCartSnapshot(ctx context.Context, input InquiryCreateInput) (domain.CartData, error) {
	if len(input.Items) > 0 {
		raw := domain.RawCart{}
		for _, item := range input.Items {
			if raw[item.ProductID] == nil {
				raw[item.ProductID] = map[string]any{}
			}
			size := item.Size
			if size == "" {
				size = cart.DefaultSize
			}
			if existing, ok := raw[item.ProductID][size].(int); ok {
				raw[item.ProductID][size] = existing + item.Quantity
			} else {
				raw[item.ProductID][size] = item.Quantity
			}
		}
		return cart.Sanitize(raw), nil
	}
	if input.UserID != nil && *input.UserID != "" {
		return h.carts.Snapshot(ctx, *input.UserID)
	}
	return domain.CartData{}, nil
}

func (h *HTTPHandler) ListInquiries(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()

	params := store.ListInquiriesParams{Limit: 20}
	if userID := qParams.Get("user_id"); userID != "" {
		params.UserID = &userID
	}
	if limit, err := strconv.Atoi(qParams.Get("limit")); err == nil && limit > 0 && limit <= 100 {
		params.Limit = limit
	}
	if page, err := strconv.Atoi(qParams.Get("page")); err == nil && page > 1 {
		params.Offset = (page - 1) * params.Limit
	}

	inquiries, totalCount, err := h.inquiryStore.ListInquiries(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: ListInquiries store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve inquiries")
		return
	}

	respondWithJSON(w, http.StatusOK, struct {
		Inquiries  []domain.Inquiry `json:"inquiries"`
		TotalItems int              `json:"total_items"`
	}{
		Inquiries:  inquiries,
		TotalItems: totalCount,
	})
}

// ResendInquiry re-attempts email delivery for an inquiry whose
// notification failed, using the stored lines. This is the recovery path
// for a partial submission; the cart is never resubmitted.
func (h *HTTPHandler) ResendInquiry(w http.ResponseWriter, r *http.Request) {
	inquiryID := chi.URLParam(r, "inquiryId")
	if inquiryID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry ID")
		return
	}

	inq, err := h.submitter.Resend(r.Context(), inquiryID)
	switch {
	case err == nil:
		respondWithJSON(w, http.StatusOK, inq)
	case errors.Is(err, store.ErrInquiryNotFound):
		respondWithError(w, http.StatusNotFound, store.ErrInquiryNotFound.Error())
	case errors.Is(err, inquiry.ErrNotResendable):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, inquiry.ErrEmailDeliveryFailed):
		log.Printf("WARN: ResendInquiry email phase failed for ID %s: %v", inquiryID, err)
		respondWithJSON(w, http.StatusBadGateway, struct {
			ErrorResponse
			Inquiry *domain.Inquiry `json:"inquiry"`
		}{
			ErrorResponse: ErrorResponse{
				Error:  "Notification email failed again",
				Detail: err.Error(),
			},
			Inquiry: inq,
		})
	default:
		log.Printf("ERROR: ResendInquiry failed for ID %s: %v", inquiryID, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to resend inquiry")
	}
}

// InquiryStatusUpdateInput defines the expected input for the
// administrative inquiry lifecycle update.
type InquiryStatusUpdateInput struct {
	Status domain.InquiryStatus `json:"status" validate:"required"`
}

func (h *HTTPHandler) UpdateInquiryStatus(w http.ResponseWriter, r *http.Request) {
	inquiryID := chi.URLParam(r, "inquiryId")
	if inquiryID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry ID")
		return
	}

	var input InquiryStatusUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if !input.Status.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry status")
		return
	}

	inq, err := h.inquiryStore.GetInquiryByID(r.Context(), inquiryID)
	if err != nil {
		log.Printf("ERROR: UpdateInquiryStatus lookup for ID %s failed: %v", inquiryID, err)
		if errors.Is(err, store.ErrInquiryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrInquiryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve inquiry")
		}
		return
	}

	if err := h.inquiryStore.UpdateInquiryStatus(r.Context(), inquiryID, input.Status); err != nil {
		log.Printf("ERROR: UpdateInquiryStatus store operation for ID %s failed: %v", inquiryID, err)
		if errors.Is(err, store.ErrInquiryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrInquiryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update inquiry status")
		}
		return
	}

	inq.Status = input.Status
	respondWithJSON(w, http.StatusOK, inq)
}

// EmailStatusUpdateInput defines the expected input for reconciling an
// inquiry's email delivery status.
type EmailStatusUpdateInput struct {
	EmailStatus domain.EmailStatus `json:"email_status" validate:"required"`
}

func (h *HTTPHandler) UpdateInquiryEmailStatus(w http.ResponseWriter, r *http.Request) {
	inquiryID := chi.URLParam(r, "inquiryId")
	if inquiryID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid inquiry ID")
		return
	}

	var input EmailStatusUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if !input.EmailStatus.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid email status")
		return
	}

	inq, err := h.inquiryStore.GetInquiryByID(r.Context(), inquiryID)
	if err != nil {
		log.Printf("ERROR: UpdateInquiryEmailStatus lookup for ID %s failed: %v", inquiryID, err)
		if errors.Is(err, store.ErrInquiryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrInquiryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve inquiry")
		}
		return
	}

	next, err := inq.EmailStatus.Transition(input.EmailStatus)
	if err != nil {
		respondWithError(w, http.StatusConflict, err.Error())
		return
	}

	if err := h.inquiryStore.UpdateInquiryEmailStatus(r.Context(), inquiryID, next); err != nil {
		log.Printf("ERROR: UpdateInquiryEmailStatus store operation for ID %s failed: %v", inquiryID, err)
		if errors.Is(err, store.ErrInquiryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrInquiryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update inquiry email status")
		}
		return
	}

	inq.EmailStatus = next
	respondWithJSON(w, http.StatusOK, inq)
}
