// Package httpapi exposes the ledger services over REST.
package httpapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/stockfolio/ledger/internal/app"
	"github.com/stockfolio/ledger/internal/app/metrics"
	"github.com/stockfolio/ledger/internal/app/services/transfers"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
	"github.com/stockfolio/ledger/internal/httputil"
	"github.com/stockfolio/ledger/internal/middleware"
	"github.com/stockfolio/ledger/pkg/logger"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Options tune the handler beyond its service dependencies.
type Options struct {
	// Version is reported by the health endpoint.
	Version string
	// AuditFile, when set, mirrors the audit trail to a JSON-lines file.
	AuditFile string
}

type handler struct {
	app     *app.Application
	log     *logger.Logger
	audit   *auditLog
	version string
}

// NewHandler returns the router exposing the REST API under /api.
func NewHandler(application *app.Application, log *logger.Logger, opts Options) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	var sink auditSink
	if opts.AuditFile != "" {
		sink = newFileAuditSink(opts.AuditFile)
	}
	h := &handler{
		app:     application,
		log:     log,
		audit:   newAuditLog(0, sink),
		version: opts.Version,
	}

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.auditMiddleware)

	api.HandleFunc("/health/ping", h.ping).Methods(http.MethodGet)
	api.HandleFunc("/health/version", h.healthVersion).Methods(http.MethodGet)

	api.HandleFunc("/accounts", h.listAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", h.createAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/email/{email}", h.getAccountByEmail).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{accountNr}", h.getAccount).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{accountNr}", h.updateAccount).Methods(http.MethodPut)
	api.HandleFunc("/accounts/{accountNr}", h.deleteAccount).Methods(http.MethodDelete)

	api.HandleFunc("/stocks", h.listStocks).Methods(http.MethodGet)
	api.HandleFunc("/stocks", h.createStock).Methods(http.MethodPost)
	api.HandleFunc("/stocks/symbol/{symbol}", h.getStockBySymbol).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{stockId}", h.getStock).Methods(http.MethodGet)
	api.HandleFunc("/stocks/{stockId}", h.updateStock).Methods(http.MethodPut)
	api.HandleFunc("/stocks/{stockId}", h.deleteStock).Methods(http.MethodDelete)

	api.HandleFunc("/trades", h.listTrades).Methods(http.MethodGet)
	api.HandleFunc("/trades", h.createTrade).Methods(http.MethodPost)
	api.HandleFunc("/trades/{tradeId}", h.getTrade).Methods(http.MethodGet)
	api.HandleFunc("/trades/{tradeId}", h.updateTrade).Methods(http.MethodPut)
	api.HandleFunc("/trades/{tradeId}", h.deleteTrade).Methods(http.MethodDelete)

	h.transferRoutes(api, "/deposits", application.Deposits)
	h.transferRoutes(api, "/withdraws", application.Withdraws)

	api.HandleFunc("/users/me", h.currentUser).Methods(http.MethodGet)
	api.HandleFunc("/audit", h.listAudit).Methods(http.MethodGet)

	return r
}

func (h *handler) transferRoutes(api *mux.Router, prefix string, svc *transfers.Service) {
	api.HandleFunc(prefix, h.listTransfers(svc)).Methods(http.MethodGet)
	api.HandleFunc(prefix, h.createTransfer(svc)).Methods(http.MethodPost)
	api.HandleFunc(prefix+"/{accountNr}/{date}", h.getTransfer(svc)).Methods(http.MethodGet)
	api.HandleFunc(prefix+"/{accountNr}/{date}", h.updateTransfer(svc)).Methods(http.MethodPut)
	api.HandleFunc(prefix+"/{accountNr}/{date}", h.deleteTransfer(svc)).Methods(http.MethodDelete)
}

// --- health -----------------------------------------------------------------

func (h *handler) ping(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"pong": true})
}

func (h *handler) healthVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// --- accounts ---------------------------------------------------------------

func (h *handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Accounts.GetAll(r.Context())
	h.respond(w, r, "account", "getAll", http.StatusOK, list, err)
}

func (h *handler) getAccount(w http.ResponseWriter, r *http.Request) {
	nr, err := pathInt(r, "accountNr")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	acct, err := h.app.Accounts.GetByID(r.Context(), nr)
	h.respond(w, r, "account", "getById", http.StatusOK, acct, err)
}

func (h *handler) getAccountByEmail(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	acct, err := h.app.Accounts.GetByEmail(r.Context(), email)
	h.respond(w, r, "account", "getByEmail", http.StatusOK, acct, err)
}

func (h *handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var in wire.AccountInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if err := validateAccount(in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	acct, err := h.app.Accounts.Create(r.Context(), in)
	h.respond(w, r, "account", "create", http.StatusCreated, acct, err)
}

func (h *handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	nr, err := pathInt(r, "accountNr")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	var in wire.AccountInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if err := validateAccount(in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	acct, err := h.app.Accounts.UpdateByID(r.Context(), nr, in)
	h.respond(w, r, "account", "updateById", http.StatusOK, acct, err)
}

func (h *handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	nr, err := pathInt(r, "accountNr")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	err = h.app.Accounts.DeleteByID(r.Context(), nr)
	h.respondEmpty(w, r, "account", "deleteById", err)
}

// --- stocks -----------------------------------------------------------------

func (h *handler) listStocks(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Stocks.GetAll(r.Context())
	h.respond(w, r, "stock", "getAll", http.StatusOK, list, err)
}

func (h *handler) getStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "stockId")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	st, err := h.app.Stocks.GetByID(r.Context(), id)
	h.respond(w, r, "stock", "getById", http.StatusOK, st, err)
}

func (h *handler) getStockBySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	st, err := h.app.Stocks.GetBySymbol(r.Context(), symbol)
	h.respond(w, r, "stock", "getBySymbol", http.StatusOK, st, err)
}

func (h *handler) createStock(w http.ResponseWriter, r *http.Request) {
	var in wire.StockInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if err := validateStock(in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	st, err := h.app.Stocks.Create(r.Context(), in)
	h.respond(w, r, "stock", "create", http.StatusCreated, st, err)
}

func (h *handler) updateStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "stockId")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	var in wire.StockInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if err := validateStock(in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	st, err := h.app.Stocks.UpdateByID(r.Context(), id, in)
	h.respond(w, r, "stock", "updateById", http.StatusOK, st, err)
}

func (h *handler) deleteStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "stockId")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	err = h.app.Stocks.DeleteByID(r.Context(), id)
	h.respondEmpty(w, r, "stock", "deleteById", err)
}

// --- trades -----------------------------------------------------------------

func (h *handler) listTrades(w http.ResponseWriter, r *http.Request) {
	list, err := h.app.Trades.GetAll(r.Context())
	h.respond(w, r, "trade", "getAll", http.StatusOK, list, err)
}

func (h *handler) getTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "tradeId")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	tr, err := h.app.Trades.GetByID(r.Context(), id)
	h.respond(w, r, "trade", "getById", http.StatusOK, tr, err)
}

func (h *handler) createTrade(w http.ResponseWriter, r *http.Request) {
	var in wire.TradeInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if err := validateTrade(in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	tr, err := h.app.Trades.Create(r.Context(), in)
	h.respond(w, r, "trade", "create", http.StatusCreated, tr, err)
}

func (h *handler) updateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "tradeId")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	var in wire.TradeInput
	if err := decodeBody(r, &in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	if err := validateTrade(in); err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	tr, err := h.app.Trades.UpdateByID(r.Context(), id, in)
	h.respond(w, r, "trade", "updateById", http.StatusOK, tr, err)
}

func (h *handler) deleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "tradeId")
	if err != nil {
		httputil.WriteServiceError(w, r, err)
		return
	}
	err = h.app.Trades.DeleteByID(r.Context(), id)
	h.respondEmpty(w, r, "trade", "deleteById", err)
}

// --- deposits / withdraws ---------------------------------------------------

func (h *handler) listTransfers(svc *transfers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.GetAll(r.Context())
		h.respond(w, r, svc.Kind().String(), "getAll", http.StatusOK, list, err)
	}
}

func (h *handler) getTransfer(svc *transfers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nr, date, err := transferKey(r)
		if err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		rec, err := svc.GetByID(r.Context(), nr, date)
		h.respond(w, r, svc.Kind().String(), "getById", http.StatusOK, rec, err)
	}
}

func (h *handler) createTransfer(svc *transfers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in wire.TransferInput
		if err := decodeBody(r, &in); err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		if err := validateTransfer(in); err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		rec, err := svc.Create(r.Context(), in)
		h.respond(w, r, svc.Kind().String(), "create", http.StatusCreated, rec, err)
	}
}

func (h *handler) updateTransfer(svc *transfers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nr, date, err := transferKey(r)
		if err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		var in struct {
			Sum float64 `json:"sum"`
		}
		if err := decodeBody(r, &in); err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		if in.Sum <= 0 {
			httputil.WriteServiceError(w, r, apperrors.ValidationFailed("sum must be positive"))
			return
		}
		rec, err := svc.UpdateByID(r.Context(), nr, date, in.Sum)
		h.respond(w, r, svc.Kind().String(), "updateById", http.StatusOK, rec, err)
	}
}

func (h *handler) deleteTransfer(svc *transfers.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nr, date, err := transferKey(r)
		if err != nil {
			httputil.WriteServiceError(w, r, err)
			return
		}
		err = svc.DeleteByID(r.Context(), nr, date)
		h.respondEmpty(w, r, svc.Kind().String(), "deleteById", err)
	}
}

// --- users ------------------------------------------------------------------

func (h *handler) currentUser(w http.ResponseWriter, r *http.Request) {
	subject := logger.GetSubject(r.Context())
	if subject == "" {
		httputil.WriteServiceError(w, r, apperrors.Unauthorized("No authenticated subject"))
		return
	}
	u, err := h.app.Users.GetByAuth0ID(r.Context(), subject)
	h.respond(w, r, "user", "me", http.StatusOK, u, err)
}

// --- audit ------------------------------------------------------------------

func (h *handler) listAudit(w http.ResponseWriter, r *http.Request) {
	entries := h.audit.list()
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": entries,
		"count": len(entries),
	})
}

func (h *handler) auditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		h.audit.add(auditEntry{
			Time:       time.Now().UTC(),
			Subject:    logger.GetSubject(r.Context()),
			Path:       r.URL.Path,
			Method:     r.Method,
			Status:     rec.status,
			RemoteAddr: r.RemoteAddr,
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// --- helpers ----------------------------------------------------------------

func (h *handler) respond(w http.ResponseWriter, r *http.Request, entity, operation string, status int, payload interface{}, err error) {
	metrics.RecordOperation(entity, operation, err)
	if err != nil {
		h.logError(r, entity, operation, err)
		httputil.WriteServiceError(w, r, err)
		return
	}
	httputil.WriteJSON(w, status, payload)
}

func (h *handler) respondEmpty(w http.ResponseWriter, r *http.Request, entity, operation string, err error) {
	metrics.RecordOperation(entity, operation, err)
	if err != nil {
		h.logError(r, entity, operation, err)
		httputil.WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) logError(r *http.Request, entity, operation string, err error) {
	entry := h.log.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"entity":    entity,
		"operation": operation,
	})
	if svcErr := apperrors.GetServiceError(err); svcErr != nil && svcErr.HTTPStatus < http.StatusInternalServerError {
		entry.Debug("request rejected")
		return
	}
	entry.Error("request failed")
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.ValidationFailed("Invalid request body").WithDetails("cause", err.Error())
	}
	return nil
}

func pathInt(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperrors.ValidationFailed(name + " must be a positive integer").WithDetails(name, raw)
	}
	return value, nil
}

func transferKey(r *http.Request) (int64, int64, error) {
	nr, err := pathInt(r, "accountNr")
	if err != nil {
		return 0, 0, err
	}
	date, err := pathInt(r, "date")
	if err != nil {
		return 0, 0, err
	}
	return nr, date, nil
}

func validateAccount(in wire.AccountInput) error {
	if in.Email == "" {
		return apperrors.ValidationFailed("e-mail is required")
	}
	if !emailPattern.MatchString(in.Email) {
		return apperrors.ValidationFailed("e-mail is not a valid address").WithDetails("e-mail", in.Email)
	}
	if in.DateJoined <= 0 {
		return apperrors.ValidationFailed("date joined must be a positive epoch timestamp")
	}
	if in.InvestedSum < 0 {
		return apperrors.ValidationFailed("invested sum must not be negative")
	}
	return nil
}

func validateStock(in wire.StockInput) error {
	if in.Symbol == "" {
		return apperrors.ValidationFailed("symbol is required")
	}
	if in.Name == "" {
		return apperrors.ValidationFailed("name is required")
	}
	return nil
}

func validateTrade(in wire.TradeInput) error {
	if in.StockID <= 0 {
		return apperrors.ValidationFailed("stockId must be a positive integer")
	}
	if in.PriceBought < 0 || in.PriceSold < 0 {
		return apperrors.ValidationFailed("prices must not be negative")
	}
	if in.Amount <= 0 {
		return apperrors.ValidationFailed("amount must be a positive integer")
	}
	if in.DateBought <= 0 {
		return apperrors.ValidationFailed("date bought must be a positive epoch timestamp")
	}
	if in.DateSold != 0 && in.DateSold < in.DateBought {
		return apperrors.ValidationFailed("date sold must not precede date bought")
	}
	return nil
}

func validateTransfer(in wire.TransferInput) error {
	if in.AccountNr <= 0 {
		return apperrors.ValidationFailed("accountNr must be a positive integer")
	}
	if in.Date <= 0 {
		return apperrors.ValidationFailed("date must be a positive epoch timestamp")
	}
	if in.Sum <= 0 {
		return apperrors.ValidationFailed("sum must be positive")
	}
	return nil
}
