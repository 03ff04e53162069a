// Package api exposes the storefront coordinator over HTTP: one session per
// client, state snapshots out, discrete named intents in.
package api

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/avelaine/storefront/internal/view"
)

// SessionHeader carries the session id on requests and responses. A request
// without a known session id gets a fresh session.
const SessionHeader = "X-Session-ID"

const maxBodyBytes = 1 << 16

// Handler serves the storefront API.
type Handler struct {
	sessions *SessionManager
}

// NewHandler returns a Handler over the given session manager.
func NewHandler(sessions *SessionManager) *Handler {
	return &Handler{sessions: sessions}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", h.state)
	mux.HandleFunc("POST /api/events", h.events)
}

// state returns the current view snapshot for the caller's session.
func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(w, r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.respond(w, r, s.ID, s.snapshot(), nil)
}

// events decodes one intent and runs it against the caller's session.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.badRequest(w, "unreadable body")
		return
	}
	ev, err := decodeEvent(body)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	s, err := h.session(w, r)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	ctx := r.Context()
	notes, snap, err := s.dispatch(ev.Confirm, func(ctrl *view.Controller) error {
		switch ev.Type {
		case eventNavigate:
			return navigate(ctrl, ev.Target)
		case eventLogin:
			ctrl.Login(ev.Username, ev.Password)
		case eventCategoryChanged:
			return ctrl.SelectCategory(ctx, ev.CategoryID)
		case eventProductSelected:
			switch ctrl.Mode() {
			case view.ModeEditProductList:
				ctrl.SelectEditProduct(ev.ProductID)
			case view.ModeDeleteProductList:
				return ctrl.DeleteProduct(ctx, ev.ProductID)
			}
		case eventFormSubmit:
			switch ctrl.Mode() {
			case view.ModeAddProduct:
				return ctrl.SubmitNewProduct(ctx, ev.Form)
			case view.ModeEditProductForm:
				return ctrl.SubmitEditedProduct(ctx, ev.Form)
			}
		case eventAddToCart:
			ctrl.AddToCart(ev.ProductID)
		case eventCartLineAction:
			switch ev.Action {
			case lineIncrease:
				ctrl.IncreaseLine(ev.Index)
			case lineDecrease:
				ctrl.DecreaseLine(ev.Index)
			case lineRemove:
				ctrl.RemoveLine(ev.Index)
			default:
				return errUnknownIntent
			}
		case eventCartClear:
			ctrl.ClearCart()
		case eventCheckout:
			ctrl.Checkout(ev.PromoCode)
		default:
			return errUnknownIntent
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnknownIntent) {
			h.badRequest(w, "unknown event")
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.respond(w, r, s.ID, snap, notes)
}

var errUnknownIntent = errors.New("unknown intent")

func navigate(ctrl *view.Controller, target string) error {
	switch target {
	case targetLogin:
		ctrl.OpenLogin()
	case targetAdmin:
		ctrl.Cancel()
	case targetAddProduct:
		ctrl.GoAddProduct()
	case targetEditProducts:
		ctrl.GoEditProducts()
	case targetDeleteProducts:
		ctrl.GoDeleteProducts()
	case targetShop:
		ctrl.BackToShop()
	default:
		return errUnknownIntent
	}
	return nil
}

// session resolves the caller's session, creating one when the header is
// missing or stale. The session id is always echoed on the response.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if id := r.Header.Get(SessionHeader); id != "" {
		if s, ok := h.sessions.Get(id); ok {
			w.Header().Set(SessionHeader, s.ID)
			return s, nil
		}
	}
	s, err := h.sessions.Create(r.Context())
	if err != nil {
		return nil, err
	}
	w.Header().Set(SessionHeader, s.ID)
	return s, nil
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, sessionID string, snap view.Snapshot, notes []Notification) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(encodeState(sessionID, snap, notes)); err != nil {
		zctx.From(r.Context()).Debug("write response", zap.Error(err))
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write(encodeError(http.StatusBadRequest, message))
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(encodeError(http.StatusInternalServerError, "internal error"))
}
