package api

import (
	"fmt"
	"net/http"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/rohits-web03/transferly/docs"
	"github.com/rohits-web03/transferly/internal/api/handlers"
	"github.com/rohits-web03/transferly/internal/api/middleware"
	"github.com/rohits-web03/transferly/internal/repositories"
	"github.com/rohits-web03/transferly/internal/transfer"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Manager *transfer.Manager
	// Blobs is served under /api/v1/blobs when it is the local backend.
	Blobs              repositories.BlobStore
	Cors               cors.Options
	MaxMultipartMemory int64
	Logger             logSDK.Logger
}

func SetupRouter(deps Deps) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(deps.Cors)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	// ---------- TRANSFER ROUTES ----------
	transfers := handlers.NewTransferHandler(deps.Manager, deps.MaxMultipartMemory, deps.Logger.Named("transfers"))
	mainMux.HandleFunc("GET /api/v1/tiers", transfers.ListTiers)
	mainMux.HandleFunc("POST /api/v1/transfers", transfers.CreateTransfer)
	mainMux.HandleFunc("GET /api/v1/transfers/{id}", transfers.GetTransfer)
	mainMux.HandleFunc("POST /api/v1/transfers/{id}/authorize", transfers.Authorize)
	mainMux.HandleFunc("POST /api/v1/transfers/{id}/downloads", transfers.IssueDownload)

	// ---------- LOCAL BLOB ROUTES ----------
	if local, ok := deps.Blobs.(*repositories.LocalBlobStore); ok {
		blobs := handlers.NewBlobHandler(local, deps.Logger.Named("blobs"))
		mainMux.HandleFunc("GET /api/v1/blobs/{token}", blobs.ServeBlob)
	}

	deps.Logger.Debug("router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Recoverer(deps.Logger)(handler)
	handler = middleware.Logger(deps.Logger.Named("http"))(handler)
	return handler
}
