package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	migrations "github.com/garnizeh/positionfaq/db"
	"github.com/garnizeh/positionfaq/internal/db"
	"github.com/garnizeh/positionfaq/internal/models"
)

func newTestStore(t *testing.T) (*Store, *db.DB) {
	t.Helper()
	ctx := context.Background()

	conn, err := db.New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(ctx, conn, migrations.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return New(conn, nil), conn
}

func positionBody(companyID int64, faqs string) []byte {
	return []byte(fmt.Sprintf(`{
		"position": {"id": 0, "companyId": %d, "positionDescription": "desc"},
		"positionFAQs": %s,
		"positionInfo": []
	}`, companyID, faqs))
}

func TestSaveAllocatesIDsFromTypeRanges(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, version, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != models.FirstPositionID || version != 1 {
		t.Fatalf("got id=%d version=%d, want %d/1", id, version, models.FirstPositionID)
	}

	id2, _, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), 0)
	if err != nil {
		t.Fatalf("save second: %v", err)
	}
	if id2 != models.FirstPositionID+1 {
		t.Fatalf("second position id = %d, want %d", id2, models.FirstPositionID+1)
	}

	cid, cv, err := s.Save(ctx, models.TypeCompany, []byte(`{"company": {}, "companyFAQs": [], "companyInfo": []}`), 0)
	if err != nil {
		t.Fatalf("save company: %v", err)
	}
	if cid != models.FirstCompanyID || cv != 1 {
		t.Fatalf("got company id=%d version=%d, want %d/1", cid, cv, models.FirstCompanyID)
	}
}

func TestSaveAppendsVersions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	body := positionBody(2001, "[]")
	id, v1, err := s.Save(ctx, models.TypePosition, body, 0)
	if err != nil {
		t.Fatalf("save v1: %v", err)
	}

	// Saving again, even with an identical body, writes a new version.
	_, v2, err := s.Save(ctx, models.TypePosition, body, id)
	if err != nil {
		t.Fatalf("save v2: %v", err)
	}
	if v1 != 1 || v2 != 2 {
		t.Fatalf("versions = %d, %d, want 1, 2", v1, v2)
	}

	latest, err := s.GetLatest(ctx, models.TypePosition, id)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.Version != 2 {
		t.Fatalf("latest version = %d, want 2", latest.Version)
	}
}

func TestGetLatestNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.GetLatest(context.Background(), models.TypePosition, 4242)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveMalformedBody(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.Save(context.Background(), models.TypePosition, []byte("not json"), 0)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("err = %v, want ErrMalformed", err)
	}
}

func TestListVersionsNewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, _, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, _, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), id); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	versions, err := s.ListVersions(ctx, models.TypePosition, id)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("got %d versions, want 3", len(versions))
	}
	for i, want := range []int64{3, 2, 1} {
		if versions[i].Version != want {
			t.Fatalf("versions[%d] = %d, want %d", i, versions[i].Version, want)
		}
	}

	empty, err := s.ListVersions(ctx, models.TypePosition, 9999)
	if err != nil {
		t.Fatalf("list versions for unknown id: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("got %d versions for unknown id, want 0", len(empty))
	}
}

func TestSaveRewritesOwnership(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	body := []byte(`{
		"position": {"id": 999, "companyId": 2001, "version": 77, "positionDescription": "desc"},
		"positionFAQs": [{"id": 50001, "positionId": 888, "question": "q?", "response": "a", "timesAsked": 1}],
		"positionInfo": [{"id": 1, "positionId": 888, "subject": "s", "answer": "a"}]
	}`)
	id, _, err := s.Save(ctx, models.TypePosition, body, 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	doc, err := s.GetPosition(ctx, id)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	if doc.Position.ID != id {
		t.Fatalf("position id = %d, want %d", doc.Position.ID, id)
	}
	if doc.Position.Version != 1 {
		t.Fatalf("position version = %d, want 1", doc.Position.Version)
	}
	if got := doc.PositionFAQs[0].PositionID; got != id {
		t.Fatalf("faq positionId = %d, want %d", got, id)
	}
	if got := doc.PositionInfo[0].PositionID; got != id {
		t.Fatalf("info positionId = %d, want %d", got, id)
	}
}

func TestListPositionsByCompany(t *testing.T) {
	s, conn := newTestStore(t)
	ctx := context.Background()

	var first int64
	for i := 0; i < 2; i++ {
		id, _, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), 0)
		if err != nil {
			t.Fatalf("save: %v", err)
		}
		if i == 0 {
			first = id
		}
	}
	if _, _, err := s.Save(ctx, models.TypePosition, positionBody(2002, "[]"), 0); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Stale versions never add extra entries: only the latest of each id counts.
	for i := 0; i < 2; i++ {
		if _, _, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), first); err != nil {
			t.Fatalf("save stale: %v", err)
		}
	}

	// A snapshot that cannot decode must be skipped, not abort the listing.
	if _, err := conn.Exec(ctx,
		`INSERT INTO documents (doc_type, doc_id, version, body, created) VALUES (?, ?, ?, ?, ?)`,
		models.TypePosition, 1099, 1, `[1,2,3]`, time.Now().Unix()); err != nil {
		t.Fatalf("insert malformed row: %v", err)
	}

	docs, err := s.ListPositionsByCompany(ctx, 2001)
	if err != nil {
		t.Fatalf("list by company: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d positions for company 2001, want 2", len(docs))
	}
	for _, d := range docs {
		if d.Position.CompanyID != 2001 {
			t.Fatalf("position %d has companyId %d", d.Position.ID, d.Position.CompanyID)
		}
	}
}

func TestUpdatePositionPreservesUnknownFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	body := []byte(`{
		"position": {"companyId": 2001, "positionDescription": "desc"},
		"positionFAQs": [],
		"positionInfo": [],
		"customNote": "keep me"
	}`)
	id, _, err := s.Save(ctx, models.TypePosition, body, 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	version, err := s.UpdatePosition(ctx, id, func(doc *models.PositionDocument) error {
		doc.PositionFAQs = append(doc.PositionFAQs, models.FAQ{
			ID: models.FirstFAQID, Question: "new?", TimesAsked: 1,
		})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if version != 2 {
		t.Fatalf("version = %d, want 2", version)
	}

	latest, err := s.GetLatest(ctx, models.TypePosition, id)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(latest.Body, &raw); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if raw["customNote"] != "keep me" {
		t.Fatalf("customNote = %v, want preserved", raw["customNote"])
	}
	faqs, _ := raw["positionFAQs"].([]any)
	if len(faqs) != 1 {
		t.Fatalf("got %d FAQs after update, want 1", len(faqs))
	}
}

func TestUpdatePositionNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.UpdatePosition(context.Background(), 4242, func(*models.PositionDocument) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdatePositionMutateErrorAborts(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, _, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	sentinel := errors.New("nope")
	if _, err := s.UpdatePosition(ctx, id, func(*models.PositionDocument) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}

	latest, err := s.GetLatest(ctx, models.TypePosition, id)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.Version != 1 {
		t.Fatalf("version = %d after aborted update, want 1", latest.Version)
	}
}

func TestConcurrentUpdatesBothLand(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	id, _, err := s.Save(ctx, models.TypePosition, positionBody(2001, "[]"), 0)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := s.UpdatePosition(ctx, id, func(doc *models.PositionDocument) error {
				doc.PositionFAQs = append(doc.PositionFAQs, models.FAQ{
					ID:       models.NextFAQID(doc.PositionFAQs),
					Question: fmt.Sprintf("question %d?", n),
				})
				return nil
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent update: %v", err)
		}
	}

	doc, err := s.GetPosition(ctx, id)
	if err != nil {
		t.Fatalf("get position: %v", err)
	}
	if len(doc.PositionFAQs) != 2 {
		t.Fatalf("got %d FAQs, want both concurrent appends", len(doc.PositionFAQs))
	}
	if doc.PositionFAQs[0].ID == doc.PositionFAQs[1].ID {
		t.Fatalf("both FAQs got id %d", doc.PositionFAQs[0].ID)
	}

	latest, err := s.GetLatest(ctx, models.TypePosition, id)
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest.Version != 3 {
		t.Fatalf("latest version = %d, want 3", latest.Version)
	}
}
