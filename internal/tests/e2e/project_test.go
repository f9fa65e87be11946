//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crowdfund/apiserver/config"
	"github.com/crowdfund/apiserver/internal/server"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	serverPort = 13000
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestProjectLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	ownerEmail := fmt.Sprintf("owner_%d@example.com", suffix)
	otherEmail := fmt.Sprintf("other_%d@example.com", suffix)
	password := "testpass123!"

	if err := signupUser(t, baseURL, "Owner", ownerEmail, password); err != nil {
		t.Fatalf("signup owner: %v", err)
	}
	if err := signupUser(t, baseURL, "Other", otherEmail, password); err != nil {
		t.Fatalf("signup other: %v", err)
	}

	ownerToken, err := loginUser(t, baseURL, ownerEmail, password)
	if err != nil {
		t.Fatalf("login owner: %v", err)
	}
	otherToken, err := loginUser(t, baseURL, otherEmail, password)
	if err != nil {
		t.Fatalf("login other: %v", err)
	}

	created, err := createProject(t, baseURL, ownerToken, "Community Garden")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected project ID to be set")
	}
	if !strings.Contains(created.ImagePath, "/images/") {
		t.Fatalf("unexpected image path: %q", created.ImagePath)
	}

	if err := expectImageServed(t, created.ImagePath); err != nil {
		t.Fatalf("uploaded image not served: %v", err)
	}

	posts, total, err := listProjects(t, baseURL)
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if total < 1 || len(posts) < 1 {
		t.Fatalf("expected at least one project, got %d/%d", len(posts), total)
	}
	if posts[0].ID != created.ID {
		t.Fatalf("expected newest project first, got id %d", posts[0].ID)
	}

	if err := updateProject(t, baseURL, otherToken, created.ID, created.ImagePath, http.StatusUnauthorized); err != nil {
		t.Fatalf("non-owner update must be rejected: %v", err)
	}
	if err := updateProject(t, baseURL, ownerToken, created.ID, created.ImagePath, http.StatusOK); err != nil {
		t.Fatalf("owner update: %v", err)
	}

	if err := deleteProject(t, baseURL, otherToken, created.ID, http.StatusUnauthorized); err != nil {
		t.Fatalf("non-owner delete must be rejected: %v", err)
	}
	if err := deleteProject(t, baseURL, ownerToken, created.ID, http.StatusOK); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

type projectPayload struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImagePath string `json:"imagePath"`
}

type createResponse struct {
	Message string         `json:"message"`
	Post    projectPayload `json:"post"`
}

type listResponse struct {
	Message  string           `json:"message"`
	Posts    []projectPayload `json:"posts"`
	MaxPosts int              `json:"maxPosts"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
	UserID    int    `json:"userId"`
}

func signupUser(t *testing.T, baseURL, name, email, password string) error {
	t.Helper()

	payload := map[string]string{"name": name, "email": email, "password": password}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/signup", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("signup status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

func loginUser(t *testing.T, baseURL, email, password string) (string, error) {
	t.Helper()

	payload := map[string]string{"email": email, "password": password}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("missing token in login response")
	}
	if parsed.ExpiresIn != 3600 {
		return "", fmt.Errorf("unexpected expiresIn %d", parsed.ExpiresIn)
	}
	return parsed.Token, nil
}

func createProject(t *testing.T, baseURL, token, title string) (projectPayload, error) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	_ = writer.WriteField("title", title)
	_ = writer.WriteField("content", "Help us build a garden for the whole block.")

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="garden plot.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		return projectPayload{}, err
	}
	if _, err := part.Write(fakePNG()); err != nil {
		return projectPayload{}, err
	}
	if err := writer.Close(); err != nil {
		return projectPayload{}, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/postProject", &body)
	if err != nil {
		return projectPayload{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return projectPayload{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return projectPayload{}, fmt.Errorf("create project status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed createResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return projectPayload{}, err
	}
	return parsed.Post, nil
}

func listProjects(t *testing.T, baseURL string) ([]projectPayload, int, error) {
	t.Helper()

	resp, err := http.Get(baseURL + "/getProject")
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("list status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed listResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, 0, err
	}
	return parsed.Posts, parsed.MaxPosts, nil
}

func updateProject(t *testing.T, baseURL, token string, id int, imagePath string, wantStatus int) error {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("title", "Community Garden v2")
	_ = writer.WriteField("content", "Now with a greenhouse.")
	_ = writer.WriteField("imagePath", imagePath)
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/updateProject/%d", baseURL, id), &body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("update status %d (want %d): %s", resp.StatusCode, wantStatus, strings.TrimSpace(string(msg)))
	}
	return nil
}

func deleteProject(t *testing.T, baseURL, token string, id, wantStatus int) error {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/deleteProject/%d", baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete status %d (want %d): %s", resp.StatusCode, wantStatus, strings.TrimSpace(string(msg)))
	}
	return nil
}

func expectImageServed(t *testing.T, imageURL string) error {
	t.Helper()

	resp, err := http.Get(imageURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("empty image body")
	}
	return nil
}

func fakePNG() []byte {
	return append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, []byte("not a real png but good enough")...)
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "crowdfund")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "crowdfund_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("STORAGE_DRIVER", "local")
	_ = os.Setenv("IMAGE_DIR", filepath.Join(os.TempDir(), fmt.Sprintf("crowdfund-e2e-%d", time.Now().UnixNano())))

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, cfg.Database.URL())
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
