package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/viacast/vialcd/apimodel"
	"github.com/viacast/vialcd/internal/srv/config"
	"github.com/viacast/vialcd/internal/srv/event"
	"github.com/viacast/vialcd/internal/srv/render"
	"github.com/viacast/vialcd/internal/tool"
	"io"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"
	"unicode/utf8"
)

const maxTextBody = 4096

type Api struct {
	eventChannel chan event.ApiEvent

	router    *mux.Router
	apiRouter *mux.Router
	server    *http.Server

	config *config.ServerConfig
}

func NewApi(config *config.ServerConfig) *Api {
	api := Api{
		config:       config,
		eventChannel: make(chan event.ApiEvent),
	}

	api.router = mux.NewRouter().StrictSlash(false)

	// API Routes
	api.apiRouter = api.router.PathPrefix("/api").Subrouter()
	api.apiRouter.NotFoundHandler = http.HandlerFunc(ErrorNotFoundAction)
	api.apiRouter.MethodNotAllowedHandler = http.HandlerFunc(ErrorMethodNotAllowedAction)

	// Auth middleware
	api.apiRouter.Use(
		func(handler http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if rec := recover(); rec != nil {
						logrus.Warningf("recovered from panic : [%v] - stack trace : \n [%s]", rec, debug.Stack())
						strMessage := fmt.Sprintf("%v", rec)
						GlobalErrorAction(w, strMessage, http.StatusInternalServerError)
					}
				}()

				// Check API Key
				if apiKey := config.ServerParam.ApiParam.ApiKey; apiKey != "" && r.Header.Get("x-api-key") != apiKey {
					ErrorStatusAction(w, r, http.StatusForbidden)
					return
				}

				logrus.Debugf("PATH: %s %s %s", r.Method, r.Host, r.URL.Path)

				handler.ServeHTTP(w, r)
			})
		})

	// Create server check endpoint
	api.apiRouter.HandleFunc("/is_alive",
		func(w http.ResponseWriter, r *http.Request) {
			ErrorStatusAction(w, r, http.StatusOK)
		}).Methods("GET")

	// Display
	api.apiRouter.HandleFunc("/status",
		func(w http.ResponseWriter, r *http.Request) {
			status := &apimodel.Status{}
			if api.dispatch(w, r, event.ApiEventStatusData{Status: status}) {
				JsonAction(w, status)
			}
		}).Methods("GET")
	api.apiRouter.HandleFunc("/display/rotate/{rotate}",
		func(w http.ResponseWriter, r *http.Request) {
			rotate, err := strconv.Atoi(mux.Vars(r)["rotate"])
			if err != nil || rotate < 0 || rotate > 3 {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventRotateData{Rotate: rotate})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/display/always_text_bar/{on}",
		func(w http.ResponseWriter, r *http.Request) {
			on, err := strconv.ParseBool(mux.Vars(r)["on"])
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventAlwaysTextBarData{On: on})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/display/always_status_bar/{on}",
		func(w http.ResponseWriter, r *http.Request) {
			on, err := strconv.ParseBool(mux.Vars(r)["on"])
			if err != nil {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventAlwaysStatusBarData{On: on})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/display/wake",
		func(w http.ResponseWriter, r *http.Request) {
			api.dispatchStatus(w, r, event.ApiEventWakeData{})
		}).Methods("POST")
	api.apiRouter.HandleFunc("/icons/reload",
		func(w http.ResponseWriter, r *http.Request) {
			api.dispatchStatus(w, r, event.ApiEventIconsReloadData{})
		}).Methods("POST")

	// Text grid
	api.apiRouter.HandleFunc("/text/{x}/{y}",
		func(w http.ResponseWriter, r *http.Request) {
			x, y, ok := gridPosition(r)
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			body, err := io.ReadAll(io.LimitReader(r.Body, maxTextBody))
			if err != nil || !utf8.Valid(body) {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventTextData{X: x, Y: y, Text: string(body)})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/chr/{x}/{y}/{c}",
		func(w http.ResponseWriter, r *http.Request) {
			x, y, ok := gridPosition(r)
			c := mux.Vars(r)["c"]
			chr, size := utf8.DecodeRuneInString(c)
			if !ok || chr == utf8.RuneError || size != len(c) {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventChrData{X: x, Y: y, Chr: chr})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/icon/{x}/{y}/{name}",
		func(w http.ResponseWriter, r *http.Request) {
			x, y, ok := gridPosition(r)
			name := mux.Vars(r)["name"]
			if _, known := render.IconByName(name); !ok || !known {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventIconData{X: x, Y: y, Name: name})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/hbar/{x}/{y}/{length}/{promille}",
		func(w http.ResponseWriter, r *http.Request) {
			x, y, length, promille, ok := barGeometry(r)
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventHBarData{X: x, Y: y, Length: length, Promille: promille})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/vbar/{x}/{y}/{length}/{promille}",
		func(w http.ResponseWriter, r *http.Request) {
			x, y, length, promille, ok := barGeometry(r)
			if !ok {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventVBarData{X: x, Y: y, Length: length, Promille: promille})
		}).Methods("PUT")
	api.apiRouter.HandleFunc("/clear",
		func(w http.ResponseWriter, r *http.Request) {
			api.dispatchStatus(w, r, event.ApiEventClearData{})
		}).Methods("POST")

	// Keypad
	api.apiRouter.HandleFunc("/keys",
		func(w http.ResponseWriter, r *http.Request) {
			keys := &apimodel.KeyList{Keys: []string{}}
			if api.dispatch(w, r, event.ApiEventKeysData{Keys: keys}) {
				JsonAction(w, keys)
			}
		}).Methods("GET")
	api.apiRouter.HandleFunc("/keypad/{code}",
		func(w http.ResponseWriter, r *http.Request) {
			code := mux.Vars(r)["code"]
			if len(code) != 1 || !ValidCode(code[0]) {
				ErrorStatusAction(w, r, http.StatusBadRequest)
				return
			}
			api.dispatchStatus(w, r, event.ApiEventKeypadData{Code: code[0]})
		}).Methods("POST")

	// Tell the browser that it's OK for JS to communicate with the server
	headersOk := handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "x-api-key"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "OPTIONS"})

	api.server = &http.Server{
		Addr:         ":" + strconv.FormatInt(config.ServerParam.ApiParam.Port, 10),
		Handler:      api.Handler(handlers.CORS(originsOk, headersOk, methodsOk)),
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 240,
	}

	return &api
}

// Handler returns the routes wrapped by the given middleware and compression.
func (d *Api) Handler(middleware func(http.Handler) http.Handler) http.Handler {
	return handlers.CompressHandler(middleware(d.router))
}

// dispatch forwards data to the event loop and waits for its answer. It
// reports whether the request succeeded; otherwise the error was sent.
func (d *Api) dispatch(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	result := make(chan error)
	select {
	case d.eventChannel <- event.ApiEvent{Result: result, Data: data}:
	case <-r.Context().Done():
		ErrorStatusAction(w, r, http.StatusServiceUnavailable)
		return false
	}
	err := <-result
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrKeypadBusy):
		GlobalErrorAction(w, err.Error(), http.StatusConflict)
	default:
		GlobalErrorAction(w, err.Error(), http.StatusForbidden)
	}
	return false
}

func (d *Api) dispatchStatus(w http.ResponseWriter, r *http.Request, data interface{}) {
	if d.dispatch(w, r, data) {
		ErrorStatusAction(w, r, http.StatusOK)
	}
}

func gridPosition(r *http.Request) (x int, y int, ok bool) {
	vars := mux.Vars(r)
	x, errX := strconv.Atoi(vars["x"])
	y, errY := strconv.Atoi(vars["y"])
	return x, y, errX == nil && errY == nil
}

func barGeometry(r *http.Request) (x, y, length, promille int, ok bool) {
	x, y, ok = gridPosition(r)
	vars := mux.Vars(r)
	length, errLength := strconv.Atoi(vars["length"])
	promille, errPromille := strconv.Atoi(vars["promille"])
	ok = ok && errLength == nil && errPromille == nil && length >= 0
	return x, y, length, promille, ok
}

// Start serves the api in background. With api.tls a self signed certificate
// is created in the config folder on first use.
func (d *Api) Start() error {
	if !d.config.ApiParam.Tls {
		logrus.Infof("Start api device on http %s", d.server.Addr)
		go d.serve(d.server.ListenAndServe)
		return nil
	}

	if err := d.ensureCertificate(); err != nil {
		return err
	}
	logrus.Infof("Start api device on https %s", d.server.Addr)
	go d.serve(func() error {
		return d.server.ListenAndServeTLS(d.selfSignedCertFilename(), d.selfSignedKeyFilename())
	})
	return nil
}

func (d *Api) serve(listen func() error) {
	if err := listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Error(err)
	}
}

func (d *Api) ensureCertificate() error {
	existServerCert, err := tool.IsFileExists(d.selfSignedCertFilename())
	if err != nil {
		return fmt.Errorf("unable to access %s: %w", d.selfSignedCertFilename(), err)
	}
	existServerKey, err := tool.IsFileExists(d.selfSignedKeyFilename())
	if err != nil {
		return fmt.Errorf("unable to access %s: %w", d.selfSignedKeyFilename(), err)
	}
	if existServerCert && existServerKey {
		return nil
	}

	logrus.Info("Missing cert and key files, trying to generate them...")
	err = tool.GenerateSelfSignedCertificate(
		tool.CertificateRequest{
			Organization: "viacast",
			CommonName:   "vialcd server",
			Hostnames:    []string{"localhost"},
			Validity:     10 * 365 * 24 * time.Hour,
		},
		d.selfSignedKeyFilename(),
		d.selfSignedCertFilename())
	if err != nil {
		return fmt.Errorf("unable to generate cert and key files: %w", err)
	}
	return nil
}

func (d *Api) selfSignedKeyFilename() string {
	return filepath.Join(d.config.ConfigDir, "key.pem")
}

func (d *Api) selfSignedCertFilename() string {
	return filepath.Join(d.config.ConfigDir, "cert.pem")
}

func (d *Api) StopSendingEvent() {
	logrus.Infof("Stop api device")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d.server.Shutdown(ctx)
}

func (d *Api) EventChannel() chan event.ApiEvent {
	return d.eventChannel
}

func ErrorNotFoundAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusNotFound)
}

func ErrorMethodNotAllowedAction(w http.ResponseWriter, r *http.Request) {
	ErrorStatusAction(w, r, http.StatusMethodNotAllowed)
}

func ErrorStatusAction(w http.ResponseWriter, r *http.Request, status int) {
	ErrorMessageAction(w, "", status)
}

func GlobalErrorAction(w http.ResponseWriter, message string, status int) {
	ErrorMessageAction(w, message, status)
}

func ErrorMessageAction(w http.ResponseWriter, title string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apimodel.NewErrorMessage(status, title))
}

func JsonAction(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("Unable to encode response: %v", err)
	}
}
