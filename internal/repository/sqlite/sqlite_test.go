package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/sakif/blog/internal/apperror"
	"github.com/sakif/blog/internal/model"
)

func TestEnsureSchema_FreshDatabase(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	err = db.EnsureSchema(context.Background())
	if !errors.Is(err, ErrSchemaMissing) {
		t.Errorf("EnsureSchema() error = %v, want ErrSchemaMissing", err)
	}
}

func TestEnsureSchema_AfterInit(t *testing.T) {
	db := newTestDB(t)

	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Errorf("EnsureSchema() error = %v, want nil", err)
	}
}

func TestInit_ClearsExistingData(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}

	_, err := db.GetUserByUsername(context.Background(), "alice")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("user survived Init(): err = %v", err)
	}

	// ids restart after a re-init
	if u := createTestUser(t, db, "bob"); u.ID != 1 {
		t.Errorf("first id after Init() = %d, want 1", u.ID)
	}
}

func TestOpen_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	createTestUser(t, db, "alice")
	db.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	defer reopened.Close()

	if err := reopened.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if _, err := reopened.GetUserByUsername(context.Background(), "alice"); err != nil {
		t.Errorf("GetUserByUsername() after reopen error = %v", err)
	}
}

// Driver failures must come back as plain wrapped errors, never as
// NotFound or Conflict, so the HTTP layer answers 500.
func TestStoreFailuresAreNotDomainErrors(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()
	db := NewWithConn(conn)

	boom := errors.New("disk I/O error")
	mock.ExpectQuery("FROM post p").WithArgs(int64(3)).WillReturnError(boom)
	mock.ExpectExec("INSERT INTO user").WithArgs("alice", "h").WillReturnError(boom)
	mock.ExpectExec("DELETE FROM post").WithArgs(int64(3)).WillReturnError(boom)

	_, err = db.GetPostByID(context.Background(), 3)
	if !errors.Is(err, boom) || errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPostByID() error = %v, want wrapped driver error", err)
	}

	err = db.CreateUser(context.Background(), &model.User{Username: "alice", PasswordHash: "h"})
	if !errors.Is(err, boom) || errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want wrapped driver error", err)
	}

	err = db.DeletePost(context.Background(), 3)
	if !errors.Is(err, boom) {
		t.Errorf("DeletePost() error = %v, want wrapped driver error", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListPosts_ScanErrorSurfaces(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer conn.Close()
	db := NewWithConn(conn)

	rows := sqlmock.NewRows([]string{"id", "author_id", "username", "title", "body", "created"}).
		AddRow("not-a-number", 1, "alice", "t", "b", "2024-01-01 00:00:00")
	mock.ExpectQuery("ORDER BY p.created DESC, p.id DESC").WillReturnRows(rows)

	if _, err := db.ListPosts(context.Background()); err == nil {
		t.Error("ListPosts() should fail when a row cannot be scanned")
	}
}
