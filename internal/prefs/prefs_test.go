package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// memBacking keeps entries in memory and can be told to fail.
type memBacking struct {
	mu      sync.Mutex
	data    map[string]string
	loadErr error
	readErr error
	putErr  error
	puts    int
}

func (m *memBacking) Load(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

func (m *memBacking) Lookup(ctx context.Context, userID string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", false, m.readErr
	}
	code, ok := m.data[userID]
	return code, ok, nil
}

func (m *memBacking) Put(ctx context.Context, userID, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[userID] = code
	return nil
}

func TestStore_GetDefault(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memBacking{}, "en", nil)

	if got := s.Get(ctx, "123"); got != "en" {
		t.Errorf("Get() = %q, want en", got)
	}
	if s.Count(ctx) != 0 {
		t.Errorf("Count() = %d, want 0", s.Count(ctx))
	}
}

func TestStore_Set(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
		get  string
	}{
		{"supported", "fr", true, "fr"},
		{"upper case", "DE", true, "de"},
		{"surrounding space", " zh ", true, "zh"},
		{"unsupported", "xx", false, "en"},
		{"empty", "", false, "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b := &memBacking{}
			s := Open(ctx, b, "en", nil)

			if got := s.Set(ctx, "42", tt.code); got != tt.want {
				t.Fatalf("Set(%q) = %v, want %v", tt.code, got, tt.want)
			}
			if got := s.Get(ctx, "42"); got != tt.get {
				t.Errorf("Get() = %q, want %q", got, tt.get)
			}
			if tt.want && b.data["42"] != tt.get {
				t.Errorf("persisted %q, want %q", b.data["42"], tt.get)
			}
			if !tt.want && b.puts != 0 {
				t.Error("rejected code must not be persisted")
			}
		})
	}
}

func TestStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memBacking{}, "en", nil)

	s.Set(ctx, "1", "fr")
	s.Set(ctx, "1", "ja")

	if got := s.Get(ctx, "1"); got != "ja" {
		t.Errorf("Get() = %q, want ja", got)
	}
	if s.Count(ctx) != 1 {
		t.Errorf("Count() = %d, want 1", s.Count(ctx))
	}
}

func TestStore_SaveFailureKeepsPrevious(t *testing.T) {
	ctx := context.Background()
	b := &memBacking{data: map[string]string{"1": "fr"}}
	s := Open(ctx, b, "en", nil)
	b.putErr = errors.New("disk full")

	if s.Set(ctx, "1", "de") {
		t.Error("Set() = true despite save failure")
	}
	if got := s.Get(ctx, "1"); got != "fr" {
		t.Errorf("Get() = %q, want previous value fr", got)
	}

	if s.Set(ctx, "2", "de") {
		t.Error("Set() = true despite save failure")
	}
	if got := s.Get(ctx, "2"); got != "en" {
		t.Errorf("Get() = %q, want default", got)
	}
	if s.Count(ctx) != 1 {
		t.Errorf("Count() = %d, want 1", s.Count(ctx))
	}
}

func TestStore_LoadFailureStartsEmpty(t *testing.T) {
	ctx := context.Background()
	b := &memBacking{loadErr: errors.New("corrupt")}
	s := Open(ctx, b, "en", nil)

	if s.Count(ctx) != 0 {
		t.Errorf("Count() = %d, want 0", s.Count(ctx))
	}
	if !s.Set(ctx, "1", "es") {
		t.Error("store must stay usable after a failed load")
	}
}

func TestStore_ReadFailureUsesLastKnown(t *testing.T) {
	ctx := context.Background()
	b := &memBacking{}
	s := Open(ctx, b, "en", nil)
	if !s.Set(ctx, "1", "ko") {
		t.Fatal("Set() failed")
	}

	b.readErr = errors.New("timeout")
	b.loadErr = errors.New("timeout")

	if got := s.Get(ctx, "1"); got != "ko" {
		t.Errorf("Get() = %q, want last known ko", got)
	}
	if got := s.Get(ctx, "2"); got != "en" {
		t.Errorf("Get() = %q, want default", got)
	}
	if s.Count(ctx) != 1 {
		t.Errorf("Count() = %d, want 1", s.Count(ctx))
	}
}

func TestStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, &memBacking{}, "en", nil)
	codes := []string{"fr", "de", "es", "ja"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Set(ctx, fmt.Sprintf("user%d", i), codes[i%len(codes)])
		}(i)
		go func(i int) {
			defer wg.Done()
			s.Get(ctx, fmt.Sprintf("user%d", i))
		}(i)
	}
	wg.Wait()

	if s.Count(ctx) != 50 {
		t.Errorf("Count() = %d, want 50", s.Count(ctx))
	}
}

// checkSharedBacking opens two stores over the same storage, as two
// processes would, and checks that neither loses the other's writes.
func checkSharedBacking(t *testing.T, open func() Backing) {
	t.Helper()
	ctx := context.Background()

	a := Open(ctx, open(), "en", nil)
	b := Open(ctx, open(), "en", nil)

	if !a.Set(ctx, "u1", "fr") {
		t.Fatal("a.Set() failed")
	}
	if got := b.Get(ctx, "u1"); got != "fr" {
		t.Errorf("b.Get(u1) = %q, want fr", got)
	}
	if !b.Set(ctx, "u2", "de") {
		t.Fatal("b.Set() failed")
	}
	if got := a.Get(ctx, "u2"); got != "de" {
		t.Errorf("a.Get(u2) = %q, want de", got)
	}
	if a.Count(ctx) != 2 {
		t.Errorf("a.Count() = %d, want 2", a.Count(ctx))
	}

	fresh := Open(ctx, open(), "en", nil)
	if fresh.Get(ctx, "u1") != "fr" || fresh.Get(ctx, "u2") != "de" {
		t.Errorf("persisted u1=%q u2=%q", fresh.Get(ctx, "u1"), fresh.Get(ctx, "u2"))
	}
}

func TestSharedBacking(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		shared := &memBacking{}
		checkSharedBacking(t, func() Backing { return shared })
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "user_languages.json")
		checkSharedBacking(t, func() Backing { return NewFileBacking(path) })
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prefs.db")
		checkSharedBacking(t, func() Backing {
			b, err := OpenSQLite(path)
			if err != nil {
				t.Fatal(err)
			}
			t.Cleanup(func() { b.Close() })
			return b
		})
	})

	t.Run("s3", func(t *testing.T) {
		fake := newFakeS3()
		checkSharedBacking(t, func() Backing {
			return &S3Backing{client: fake, bucket: "bot", key: "user_languages.json"}
		})
	})
}

func TestFileBacking_RoundTrip(t *testing.T) {
	for _, name := range []string{"user_languages.json", "user_languages.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			ctx := context.Background()

			s := Open(ctx, NewFileBacking(path), "en", nil)
			if !s.Set(ctx, "111", "ko") || !s.Set(ctx, "222", "pt") {
				t.Fatal("Set() failed")
			}

			reopened := Open(ctx, NewFileBacking(path), "en", nil)
			if reopened.Get(ctx, "111") != "ko" || reopened.Get(ctx, "222") != "pt" {
				t.Errorf("reloaded = %q, %q", reopened.Get(ctx, "111"), reopened.Get(ctx, "222"))
			}
			if reopened.Count(ctx) != 2 {
				t.Errorf("Count() = %d, want 2", reopened.Count(ctx))
			}

			entries, err := os.ReadDir(filepath.Dir(path))
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("expected only the document in the directory, found %d entries", len(entries))
			}
		})
	}
}

func TestFileBacking_JSONLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	b := NewFileBacking(path)

	if err := b.Put(context.Background(), "9", "fr"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "{\n  \"9\": \"fr\"\n}" {
		t.Errorf("document = %q", data)
	}
}

func TestFileBacking_MissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	prefs, err := NewFileBacking(filepath.Join(dir, "missing.json")).Load(ctx)
	if err != nil || len(prefs) != 0 {
		t.Errorf("missing file: prefs=%v err=%v", prefs, err)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileBacking(corrupt).Load(ctx); !errors.Is(err, errCorrupt) {
		t.Errorf("Load() error = %v, want errCorrupt", err)
	}

	s := Open(ctx, NewFileBacking(corrupt), "en", nil)
	if s.Count(ctx) != 0 {
		t.Errorf("corrupt document: Count() = %d, want 0", s.Count(ctx))
	}
	if !s.Set(ctx, "1", "sv") {
		t.Fatal("Set() over a corrupt document failed")
	}
	if got := Open(ctx, NewFileBacking(corrupt), "en", nil).Get(ctx, "1"); got != "sv" {
		t.Errorf("Get() = %q, want sv", got)
	}
}

func TestSQLiteBacking_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	ctx := context.Background()

	b, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	s := Open(ctx, b, "en", nil)
	s.Set(ctx, "1", "ru")
	s.Set(ctx, "2", "ko")
	s.Set(ctx, "1", "pl")
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	prefs, err := b.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(prefs) != 2 || prefs["1"] != "pl" || prefs["2"] != "ko" {
		t.Errorf("Load() = %v", prefs)
	}

	if _, ok, err := b.Lookup(ctx, "3"); ok || err != nil {
		t.Errorf("Lookup(3) ok=%v err=%v", ok, err)
	}
}

// fakeS3 keeps versioned objects in memory and honors conditional puts.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	versions  map[string]int
	getErr    error
	beforePut func()
	conflicts int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, versions: map[string]int{}}
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	key := *in.Bucket + "/" + *in.Key
	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
		ETag: aws.String(strconv.Itoa(f.versions[key])),
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if hook := f.beforePut; hook != nil {
		f.beforePut = nil
		hook()
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := *in.Bucket + "/" + *in.Key
	_, exists := f.objects[key]
	current := strconv.Itoa(f.versions[key])

	if (in.IfMatch != nil && (!exists || *in.IfMatch != current)) ||
		(aws.ToString(in.IfNoneMatch) == "*" && exists) {
		f.conflicts++
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}

	f.objects[key] = data
	f.versions[key]++
	return &s3.PutObjectOutput{ETag: aws.String(strconv.Itoa(f.versions[key]))}, nil
}

func TestS3Backing(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	b := &S3Backing{client: fake, bucket: "bot", key: "user_languages.json"}

	prefs, err := b.Load(ctx)
	if err != nil || len(prefs) != 0 {
		t.Fatalf("missing object: prefs=%v err=%v", prefs, err)
	}

	s := Open(ctx, b, "en", nil)
	if !s.Set(ctx, "7", "it") {
		t.Fatal("Set() failed")
	}

	var stored map[string]string
	if err := json.Unmarshal(fake.objects["bot/user_languages.json"], &stored); err != nil {
		t.Fatal(err)
	}
	if stored["7"] != "it" {
		t.Errorf("stored = %v", stored)
	}

	if got := Open(ctx, b, "en", nil).Get(ctx, "7"); got != "it" {
		t.Errorf("reloaded Get() = %q, want it", got)
	}
}

func TestS3Backing_ConcurrentWriterRetries(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	a := &S3Backing{client: fake, bucket: "bot", key: "k"}
	other := &S3Backing{client: fake, bucket: "bot", key: "k"}

	if err := a.Put(ctx, "u0", "es"); err != nil {
		t.Fatal(err)
	}

	// Another writer lands between a's read and its conditional put.
	fake.beforePut = func() {
		if err := other.Put(ctx, "u2", "de"); err != nil {
			t.Errorf("other.Put() error = %v", err)
		}
	}
	if err := a.Put(ctx, "u1", "fr"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if fake.conflicts != 1 {
		t.Errorf("conflicts = %d, want 1", fake.conflicts)
	}
	prefs, err := a.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if prefs["u0"] != "es" || prefs["u1"] != "fr" || prefs["u2"] != "de" {
		t.Errorf("stored = %v, want all three entries", prefs)
	}
}

func TestS3Backing_GivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	b := &S3Backing{client: &alwaysConflict{newFakeS3()}, bucket: "bot", key: "k"}

	err := b.Put(ctx, "u1", "fr")
	if err == nil || !conflict(err) {
		t.Errorf("Put() error = %v, want a conditional write conflict", err)
	}
}

type alwaysConflict struct{ *fakeS3 }

func (a *alwaysConflict) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
}

func TestS3Backing_GetError(t *testing.T) {
	fake := newFakeS3()
	fake.getErr = errors.New("access denied")
	b := &S3Backing{client: fake, bucket: "bot", key: "k"}

	_, err := b.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("Load() error = %v", err)
	}
	if err := b.Put(context.Background(), "u1", "fr"); err == nil {
		t.Error("Put() must fail when the object cannot be read")
	}
}
