//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/crypto/bcrypt"

	server "peer_review/internal/adapters/http_server"
	"peer_review/internal/app"
	"peer_review/internal/domain"
	"peer_review/internal/roster"
	"peer_review/internal/session"
	mysqlrepo "peer_review/internal/storage/mysql"
)

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker daemon unavailable: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=peer_review",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "peer_review")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Concurrent submissions from many sessions must all persist, and the
// admin summary must see every one of them.
func TestHTTP_EndToEnd_ConcurrentSubmissions(t *testing.T) {
	db := startMySQL(t)
	store := mysqlrepo.New(db)
	if err := store.InitializeIfAbsent(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	settings := app.Settings{Categories: domain.DefaultCategories, SubmissionCap: 10}
	dir := roster.NewDirectory([]domain.Employee{{ID: "7", Name: "Ana"}, {ID: "8", Name: "Bo"}})
	srv := server.New(server.Options{})
	srv.MountHandlers(&server.Handlers{
		Survey: app.NewSurveyService(store, session.NewMemoryStore(time.Hour), dir, settings),
		Admin:  app.NewAdminService(store, app.Credentials{Username: "admin", PasswordHash: string(hash)}, settings),
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	ratings := map[string]int{}
	for _, c := range domain.DefaultCategories {
		ratings[c] = 4
	}
	body, _ := json.Marshal(app.SubmitRequest{EmployeeID: "7", Ratings: ratings})

	const sessions = 12
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jar, _ := cookiejar.New(nil)
			c := &http.Client{Jar: jar, Timeout: 10 * time.Second}
			res, err := c.Post(ts.URL+"/v1/reviews", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Errorf("POST: %v", err)
				return
			}
			res.Body.Close()
			if res.StatusCode != http.StatusCreated {
				t.Errorf("status %d", res.StatusCode)
			}
		}()
	}
	wg.Wait()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/admin/summary", nil)
	req.SetBasicAuth("admin", "pw")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET summary: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	var out struct{ Items []domain.EmployeeStats }
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Reviews != sessions || out.Items[0].TotalScore != 4.0 {
		t.Fatalf("unexpected summary: %+v", out.Items)
	}
}
