package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis"

	log "github.com/sirupsen/logrus"
)

var (
	Client        *redis.Client
	cacheTTL      = time.Minute * 10
	cacheFlushTTL = time.Second * 10
	NeedsFlush    = make(map[string]bool)
	mutex         = &sync.Mutex{}
)

const (
	cachePrefix = "cache:"
)

// Enabled reports whether a redis client was configured. When REDIS_HOST is
// unset the whole package is a no-op and the API serves uncached.
func Enabled() bool {
	return Client != nil
}

func Init() error {
	l := log.WithFields(log.Fields{
		"package": "cache",
	})
	if os.Getenv("REDIS_HOST") == "" {
		l.Info("REDIS_HOST not set, response cache disabled")
		return nil
	}
	l.Info("Initializing redis client")
	Client = redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password:    os.Getenv("REDIS_PASSWORD"),
		DB:          0, // use default DB
		DialTimeout: 30 * time.Second,
		ReadTimeout: 30 * time.Second,
	})
	cmd := Client.Ping()
	if cmd.Err() != nil {
		l.Error("Failed to connect to redis")
		return cmd.Err()
	}
	l.Info("Connected to redis")
	if os.Getenv("CACHE_TTL") != "" {
		var err error
		cacheTTL, err = time.ParseDuration(os.Getenv("CACHE_TTL"))
		if err != nil {
			l.WithError(err).Error("failed to parse CACHE_TTL")
			return err
		}
	}
	if os.Getenv("CACHE_FLUSH_TTL") != "" {
		var err error
		cacheFlushTTL, err = time.ParseDuration(os.Getenv("CACHE_FLUSH_TTL"))
		if err != nil {
			l.WithError(err).Error("failed to parse CACHE_FLUSH_TTL")
			return err
		}
	}
	go Flusher()
	return nil
}

func Get(key string) (string, error) {
	l := log.WithFields(log.Fields{
		"package": "cache",
	})
	l.Debug("Getting key from redis")
	cmd := Client.Get(cachePrefix + key)
	if cmd.Err() != nil {
		return "", cmd.Err()
	}
	l.Debug("Got key from redis")
	return cmd.Result()
}

func Set(key string, value string, exp time.Duration) error {
	l := log.WithFields(log.Fields{
		"package": "cache",
	})
	l.Debug("Setting key in redis")
	cmd := Client.Set(cachePrefix+key, value, exp)
	if cmd.Err() != nil {
		l.Error("Failed to set key in redis")
		return cmd.Err()
	}
	l.Debug("Set key in redis")
	return nil
}

// chainFromRequest pulls the chain id out of the request path. Every cacheable
// route carries the chain as a path segment, so the first numeric segment is
// the one. Requests without one share the "all" bucket.
func chainFromRequest(req *http.Request) string {
	for _, seg := range strings.Split(req.URL.Path, "/") {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			return seg
		}
	}
	return "all"
}

func cacheKeyForRequest(req *http.Request) string {
	rh := fmt.Sprintf("%x", md5.Sum([]byte(req.Method+" "+req.URL.RequestURI())))
	return chainFromRequest(req) + ":" + rh
}

func ResponseFromCache(req *http.Request) ([]byte, error) {
	l := log.WithFields(log.Fields{
		"package": "cache",
		"method":  "ResponseFromCache",
		"path":    req.URL.Path,
	})
	l.Debug("start")
	defer l.Debug("end")
	cd, err := Get(cacheKeyForRequest(req))
	if err != nil {
		return nil, err
	}
	decoded, derr := base64.StdEncoding.DecodeString(cd)
	if derr != nil {
		l.WithError(derr).Error("decode cache")
		return nil, derr
	}
	return decoded, nil
}

func CacheReqResponse(req *http.Request, rd []byte) error {
	l := log.WithFields(log.Fields{
		"package": "cache",
		"method":  "CacheReqResponse",
		"path":    req.URL.Path,
	})
	l.Debug("start")
	defer l.Debug("end")
	rds := string(rd)
	if strings.TrimSpace(rds) == "" || strings.TrimSpace(rds) == "null" {
		l.Debug("empty response")
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(rd)
	if err := Set(cacheKeyForRequest(req), encoded, cacheTTL); err != nil {
		l.WithError(err).Error("failed to set cache")
		return err
	}
	return nil
}

func FlushChainCache(chain string) error {
	l := log.WithFields(log.Fields{
		"package": "cache",
		"method":  "FlushChainCache",
		"chain":   chain,
	})
	l.Debug("start")
	defer l.Debug("end")
	var keys []string
	var cursor uint64
	cacheKey := cachePrefix + chain
	var initCursor bool = true
	for cursor > 0 || initCursor {
		scmd := Client.Scan(cursor, cacheKey+":*", 1000)
		if scmd.Err() != nil && scmd.Err() != redis.Nil {
			l.Error("Failed to get chain cache keys")
			return scmd.Err()
		}
		var batch []string
		batch, cursor = scmd.Val()
		keys = append(keys, batch...)
		initCursor = false
		l.Debugf("cursor: %d", cursor)
		l.Debugf("keys: %v", len(keys))
	}
	for _, key := range keys {
		cmd := Client.Del(key)
		if cmd.Err() != nil && cmd.Err() != redis.Nil {
			l.Error("Failed to delete key")
			return cmd.Err()
		}
	}
	return nil
}

func Flusher() {
	l := log.WithFields(log.Fields{
		"package": "cache",
		"method":  "Flusher",
	})
	l.Debug("start")
	defer l.Debug("end")
	for {
		mutex.Lock()
		pending := make([]string, 0, len(NeedsFlush))
		for k, v := range NeedsFlush {
			if v {
				pending = append(pending, k)
				NeedsFlush[k] = false
			}
		}
		mutex.Unlock()
		for _, k := range pending {
			l.Debugf("Flushing chain %s", k)
			if err := FlushChainCache(k); err != nil {
				l.WithError(err).Error("failed to flush chain cache")
			}
		}
		time.Sleep(cacheFlushTTL)
	}
}

// Flushable marks a chain's cached responses stale. The projector calls this
// after every applied event; the background Flusher does the actual deletes.
func Flushable(chainID int64) {
	if !Enabled() {
		return
	}
	l := log.WithFields(log.Fields{
		"package": "cache",
		"method":  "Flushable",
		"chain":   chainID,
	})
	l.Debug("start")
	defer l.Debug("end")
	mutex.Lock()
	NeedsFlush[strconv.FormatInt(chainID, 10)] = true
	NeedsFlush["all"] = true
	mutex.Unlock()
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Middleware serves GET responses from redis when possible and records
// misses on the way out. Pass ?nocache=true to bypass.
func Middleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !Enabled() || r.Method != http.MethodGet || r.URL.Query().Get("nocache") == "true" {
			h.ServeHTTP(w, r)
			return
		}
		l := log.WithFields(log.Fields{
			"package": "cache",
			"method":  "Middleware",
			"path":    r.URL.Path,
		})
		if resp, err := ResponseFromCache(r); err == nil {
			l.Debug("cache hit")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("x-indexer-cache", "hit")
			w.Write(resp)
			return
		}
		l.Debug("cache miss")
		w.Header().Set("x-indexer-cache", "miss")
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		if rec.status == http.StatusOK {
			if err := CacheReqResponse(r, rec.body.Bytes()); err != nil {
				l.WithError(err).Error("failed to cache response")
			}
		}
	})
}
