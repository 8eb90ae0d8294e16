package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Klingon-tech/btcsend/internal/navigate"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := New(&Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := New(&Config{DataDir: tmpDir})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer store.Close()

	dbPath := filepath.Join(tmpDir, DatabaseFile)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if store.Path() != dbPath {
		t.Errorf("Path() = %s, want %s", store.Path(), dbPath)
	}
	if store.DB() == nil {
		t.Error("DB() returned nil")
	}
}

func TestNewWithTildeExpansion(t *testing.T) {
	home, _ := os.UserHomeDir()
	if got := expandPath("~/.test"); got != filepath.Join(home, ".test") {
		t.Errorf("expandPath(~/.test) = %s", got)
	}
}

func TestStorageSchema(t *testing.T) {
	store := newTestStorage(t)

	for _, table := range []string{"settings", "send_form_values", "previews"} {
		var name string
		err := store.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	store, err := New(&Config{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SetSetting("network", "testnet"); err != nil {
		t.Fatal(err)
	}
	store.Close()

	// Migrations must tolerate an existing schema
	store, err = New(&Config{DataDir: dir})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close()

	got, err := store.GetSetting("network")
	if err != nil || got != "testnet" {
		t.Errorf("GetSetting() = %q, %v", got, err)
	}
}

func TestSettings(t *testing.T) {
	store := newTestStorage(t)

	if _, err := store.GetSetting("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetting(missing) error = %v, want ErrNotFound", err)
	}

	if err := store.SetSetting("network", "mainnet"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetSetting("network", "signet"); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetSetting("network")
	if err != nil || got != "signet" {
		t.Errorf("GetSetting() = %q, %v, want signet", got, err)
	}
}

type formValues struct {
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
	Fee       uint64 `json:"fee"`
}

func TestFormValues(t *testing.T) {
	store := newTestStorage(t)

	var dst formValues
	if _, err := store.LoadFormValues("btc", &dst); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadFormValues(empty) error = %v, want ErrNotFound", err)
	}

	want := formValues{Amount: "0.01", Recipient: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4", Fee: 500}
	if err := store.SaveFormValues("btc", want); err != nil {
		t.Fatalf("SaveFormValues() error = %v", err)
	}

	savedAt, err := store.LoadFormValues("btc", &dst)
	if err != nil {
		t.Fatalf("LoadFormValues() error = %v", err)
	}
	if dst != want {
		t.Errorf("LoadFormValues() = %+v, want %+v", dst, want)
	}
	if time.Since(savedAt) > time.Minute {
		t.Errorf("savedAt = %s", savedAt)
	}

	// Overwrite
	want.Amount = "0.02"
	if err := store.SaveFormValues("btc", want); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadFormValues("btc", &dst); err != nil || dst.Amount != "0.02" {
		t.Errorf("after overwrite = %+v, %v", dst, err)
	}

	if err := store.ClearFormValues("btc"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadFormValues("btc", &dst); !errors.Is(err, ErrNotFound) {
		t.Errorf("after clear error = %v, want ErrNotFound", err)
	}
}

func TestPurgeFormValues(t *testing.T) {
	store := newTestStorage(t)

	if err := store.SaveFormValues("old", formValues{Amount: "1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.DB().Exec(`UPDATE send_form_values SET updated_at = ? WHERE form_key = 'old'`,
		time.Now().Add(-48*time.Hour).UnixMilli()); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveFormValues("new", formValues{Amount: "2"}); err != nil {
		t.Fatal(err)
	}

	n, err := store.PurgeFormValues(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PurgeFormValues() error = %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d rows, want 1", n)
	}

	var dst formValues
	if _, err := store.LoadFormValues("new", &dst); err != nil {
		t.Errorf("recent values purged: %v", err)
	}
}

func TestPreviews(t *testing.T) {
	store := newTestStorage(t)
	base := time.Now().Add(-time.Hour)

	for i, id := range []string{"a", "b", "c"} {
		err := store.SavePreview(&PreviewRecord{
			ID:        id,
			FormID:    "form-1",
			Network:   "mainnet",
			Recipient: "bc1qx",
			Fee:       uint64(100 * (i + 1)),
			TxHex:     "0200",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("SavePreview(%s) error = %v", id, err)
		}
	}
	// Duplicate IDs are ignored
	if err := store.SavePreview(&PreviewRecord{ID: "a", Network: "mainnet", Recipient: "x", TxHex: "ff"}); err != nil {
		t.Fatal(err)
	}

	all, err := store.ListPreviews(0)
	if err != nil {
		t.Fatalf("ListPreviews() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].ID != "c" || all[2].ID != "a" {
		t.Errorf("order = %s,%s,%s, want newest first", all[0].ID, all[1].ID, all[2].ID)
	}
	if all[2].TxHex != "0200" || all[2].Fee != 100 || all[2].FormID != "form-1" {
		t.Errorf("record a = %+v", all[2])
	}

	limited, err := store.ListPreviews(2)
	if err != nil || len(limited) != 2 {
		t.Errorf("ListPreviews(2) = %d, %v", len(limited), err)
	}
}

func TestPreviewSink(t *testing.T) {
	store := newTestStorage(t)
	router := navigate.NewRouter(store.PreviewSink(
		func() string { return "form-9" },
		func() string { return "testnet" },
	))

	e := router.ToConfirmAndSignBtcTransaction("02ab", "tb1qrecipient", 321)
	router.BackToSendForm()

	previews, err := store.ListPreviews(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(previews) != 1 {
		t.Fatalf("len = %d, want 1 (send form events are not recorded)", len(previews))
	}
	p := previews[0]
	if p.ID != e.ID || p.FormID != "form-9" || p.Network != "testnet" || p.TxHex != "02ab" || p.Fee != 321 || p.Recipient != "tb1qrecipient" {
		t.Errorf("preview = %+v", p)
	}
}
