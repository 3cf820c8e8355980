package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commande-service/internal/domain"
	"github.com/vladislavdragonenkov/commande-service/internal/service/order"
)

const (
	defaultListLimit = 10

	detailOrderNotFound   = "Commande not found"
	detailOrderDeleted    = "Commande deleted"
	detailTooManyRequests = "Too many requests. Try again later."
	detailInternalError   = "Erreur interne du serveur"
)

// Handler — HTTP-поверхность сервиса commandes. Обновление доступно
// только обогащённому варианту, минимальный его не регистрирует.
type Handler struct {
	svc      *order.Service
	logger   *log.Entry
	enriched bool
}

// NewHandler создаёт HTTP-обработчик поверх сервиса.
func NewHandler(svc *order.Service, enriched bool, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{svc: svc, logger: logger, enriched: enriched}
}

// Routes собирает маршрутизатор API.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /commandes/create", h.handleCreate)
	mux.HandleFunc("GET /commandes/all", h.handleList)
	mux.HandleFunc("GET /commande/{id}", h.handleGet)
	mux.HandleFunc("DELETE /commandes/{id}", h.handleDelete)
	if h.enriched {
		mux.HandleFunc("PUT /commandes/{id}", h.handleUpdate)
	}

	return mux
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), clientAddr(r), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, created)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.svc.List(r.Context(), skip, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, found)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.Update(r.Context(), clientAddr(r), r.PathValue("id"), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), clientAddr(r), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"detail": detailOrderDeleted})
}

// writeServiceError переводит ошибки сценариев в HTTP-ответы.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var rl *domain.RateLimitedError
	if errors.As(err, &rl) {
		seconds := int(rl.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeError(w, http.StatusTooManyRequests, detailTooManyRequests)
		return
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, detailOrderNotFound)
		return
	}

	if domain.IsValidation(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.WithError(err).Error("request failed")
	writeError(w, http.StatusInternalServerError, detailInternalError)
}

// parsePagination читает skip и limit из query. Отсутствующие значения
// заменяются умолчаниями, нечисловые и отрицательные отклоняются.
func parsePagination(r *http.Request) (int, int, error) {
	skip := 0
	limit := defaultListLimit

	if raw := r.URL.Query().Get("skip"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("skip must be a non-negative integer")
		}
		skip = parsed
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, 0, errors.New("limit must be a non-negative integer")
		}
		limit = parsed
	}

	return skip, limit, nil
}

// clientAddr возвращает адрес клиента для rate limiting: первый hop из
// X-Forwarded-For, иначе host-часть RemoteAddr.
func clientAddr(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if addr := strings.TrimSpace(parts[0]); addr != "" {
			return addr
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
