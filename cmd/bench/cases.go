// README: Bench cases covering the public endpoints, backing stores and location update throughput.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"jeepney/internal/infra"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

// redisGeoKey matches the key the redis registry writes.
const redisGeoKey = "jeeps:geo"

type Runner struct {
	cfg            Config
	httpc          *http.Client
	db             *pgxpool.Pool
	redis          *redis.Client
	driverToken    string
	passengerToken string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}
	if r.cfg.JWTSecret != "" {
		r.driverToken, _ = infra.SignDevToken(r.cfg.JWTSecret, "bench-driver", "driver", time.Hour)
		r.passengerToken, _ = infra.SignDevToken(r.cfg.JWTSecret, "bench-passenger", "passenger", time.Hour)
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	manila := map[string]any{"jeep_id": "bench-jeep-1", "lat": 14.5995, "lng": 120.9842}

	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "dsn not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: fare preset tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "dsn not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass}
			},
		},

		httpCase("API: root status", http.MethodGet, base+"/", nil, "", []int{200}),
		httpCase("API: healthz", http.MethodGet, base+"/healthz", nil, "", []int{200}),
		httpCase("API: list locations", http.MethodGet, base+"/locations", nil, "", []int{200}),

		httpCase("Distance: same point -> base fare", http.MethodGet,
			base+"/distance?lat1=14.5995&lon1=120.9842&lat2=14.5995&lon2=120.9842", nil, "", []int{200}),
		httpCase("Distance: latitude out of range -> 400", http.MethodGet,
			base+"/distance?lat1=91&lon1=120.9842&lat2=14.5995&lon2=120.9842", nil, "", []int{400}),

		httpCase("Location: update without token -> 401", http.MethodPost, base+"/jeep/update-location", manila, "", []int{401}),
		authCase("Location: update as passenger -> 403", http.MethodPost, base+"/jeep/update-location", manila, false, []int{403}),
		authCase("Location: update as driver", http.MethodPost, base+"/jeep/update-location", manila, true, []int{200}),
		authCase("Location: invalid coords -> 400", http.MethodPost, base+"/jeep/update-location",
			map[string]any{"lat": 123.0, "lng": 456.0}, true, []int{400}),
		{
			Name: "Location: GEO entry written",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				pos, err := r.redis.GeoPos(ctx, redisGeoKey, "bench-jeep-1").Result()
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if len(pos) == 0 || pos[0] == nil {
					return Result{Status: statusFail, Note: "bench-jeep-1 not in " + redisGeoKey}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("lat=%.4f lng=%.4f", pos[0].Latitude, pos[0].Longitude)}
			},
		},

		authCase("Route: Makati -> Quezon City", http.MethodGet,
			base+"/route?start_lat=14.5547&start_lng=121.0244&end_lat=14.6091&end_lng=121.0223", nil, false, []int{200}),
		authCase("Route: missing end -> 400", http.MethodGet,
			base+"/route?start_lat=14.5547&start_lng=121.0244", nil, false, []int{400}),
		authCase("ETA: jeeps near passenger", http.MethodGet,
			base+"/drivers_with_eta?user_lat=14.6000&user_lng=120.9850", nil, false, []int{200, 502}),

		{
			Name: "Perf: location update throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.driverToken == "" {
					return Result{Status: statusSkip, Note: "jwt-secret not set"}
				}
				return perfLoad(ctx, r, base+"/jeep/update-location")
			},
		},
	}
}

func httpCase(name, method, url string, body any, token string, okStatuses []int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return r.do(ctx, method, url, body, token, okStatuses)
		},
	}
}

// authCase signs the request as the bench driver or passenger; skipped without a secret.
func authCase(name, method, url string, body any, asDriver bool, okStatuses []int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			token := r.passengerToken
			if asDriver {
				token = r.driverToken
			}
			if token == "" {
				return Result{Status: statusSkip, Note: "jwt-secret not set"}
			}
			return r.do(ctx, method, url, body, token, okStatuses)
		},
	}
}

func (r *Runner) do(ctx context.Context, method, url string, body any, token string, okStatuses []int) Result {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	latency := time.Since(start)

	note := fmt.Sprintf("status=%d", resp.StatusCode)
	if contains(okStatuses, resp.StatusCode) {
		return Result{Status: statusPass, Latency: latency, Note: note}
	}
	return Result{Status: statusFail, Latency: latency, Note: note}
}

// perfLoad has every worker move its own jeep along a short line for cfg.Duration.
func perfLoad(ctx context.Context, r *Runner, url string) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			step := 0
			for time.Now().Before(end) && ctx.Err() == nil {
				b, _ := json.Marshal(map[string]any{
					"jeep_id": fmt.Sprintf("bench-jeep-%d", worker),
					"lat":     14.5995 + float64(step%100)*0.0001,
					"lng":     120.9842,
				})
				step++
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("Authorization", "Bearer "+r.driverToken)
				resp, err := r.httpc.Do(req)
				if err != nil {
					errCount.Add(1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("no requests completed, errors=%d", errCount.Load())}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
