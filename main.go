package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/KcPele/enb-bounty-indexer/internal/cache"
	"github.com/KcPele/enb-bounty-indexer/internal/chain"
	"github.com/KcPele/enb-bounty-indexer/internal/db"
	"github.com/KcPele/enb-bounty-indexer/internal/listener"
	"github.com/KcPele/enb-bounty-indexer/internal/projection"
)

// server is the read-only REST and graph query surface.
func server() {
	r := mux.NewRouter()
	api := &projection.API{DB: db.DBReader}
	api.RegisterRoutes(r)
	r.Use(cache.Middleware)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := http.ListenAndServe(":"+port, c.Handler(r)); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

// indexer starts one listener per configured chain and blocks.
func indexer(ctx context.Context) {
	l := log.WithFields(log.Fields{
		"action": "indexer",
	})
	ignore := strings.Split(os.Getenv("NFT_IGNORE_ADDRESSES"), ",")
	p := projection.NewProjector(db.DB, &chain.Reader{}, ignore)
	if cache.Enabled() {
		p.OnFlush(cache.Flushable)
	}
	chains := chain.ChainIDs()
	if len(chains) == 0 {
		l.Fatal("no chains configured")
	}
	for _, chainID := range chains {
		go listener.Run(ctx, chainID, p)
	}
	<-ctx.Done()
}

func init() {
	_ = godotenv.Load()
	ll := log.InfoLevel
	if os.Getenv("LOG_LEVEL") != "" {
		var err error
		ll, err = log.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			log.Fatal(err)
		}
	}
	log.SetLevel(ll)
	l := log.WithFields(log.Fields{
		"action": "init",
	})
	l.Debug("start")
	l.Debug("db.Init")
	if derr := db.Init(); derr != nil {
		l.WithError(derr).Fatal("Failed to initialize database")
	}
	l.Debug("init database tables")
	models := append(projection.Models(), &listener.ChainCursor{})
	if merr := db.Migrate(models...); merr != nil {
		l.WithError(merr).Fatal("Failed to migrate tables")
	}
	go db.Healthchecker()
	l.Debug("chain.Init")
	if cerr := chain.Init(); cerr != nil {
		l.WithError(cerr).Fatal("Failed to initialize chain clients")
	}
	l.Debug("cache.Init")
	if cerr := cache.Init(); cerr != nil {
		l.WithError(cerr).Fatal("Failed to initialize cache")
	}
	l.Debug("end")
}

func main() {
	l := log.WithFields(log.Fields{
		"action": "main",
	})
	runMode := "all"
	if len(os.Args) > 1 {
		runMode = os.Args[1]
	}
	l.WithFields(
		log.Fields{
			"runMode": runMode,
		},
	).Debug("start")
	switch runMode {
	case "indexer":
		indexer(context.Background())
	case "server":
		server()
	case "all":
		go indexer(context.Background())
		server()
	default:
		l.Fatal("Invalid run mode")
	}
	l.Debug("end")
}
