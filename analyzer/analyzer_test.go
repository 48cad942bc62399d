package analyzer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/DJSwig/redup-demo/archive"
	"github.com/DJSwig/redup-demo/pkg/redup"
	"github.com/DJSwig/redup-demo/rules"
)

type fakeFetcher struct {
	mu      sync.Mutex
	fetched []string
	fail    map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, community, _ string) (*rules.Result, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, community)
	f.mu.Unlock()
	if err, ok := f.fail[community]; ok {
		return nil, err
	}
	return &rules.Result{
		Profile:  redup.CommunityProfile{Name: redup.CanonicalName(community), Title: "generic", Description: "generic"},
		Rules:    []redup.RawRule{{Index: 1, Title: "Be kind", BodyText: "no attacks"}},
		Strategy: rules.StrategyPublicJSON,
	}, nil
}

type fakeDiscoverer struct {
	candidates []redup.DiscoveryCandidate
}

func (f *fakeDiscoverer) Discover(context.Context, redup.PostDraft, []string, string) []redup.DiscoveryCandidate {
	return f.candidates
}

type fakeEnricher struct {
	enrichment *Enrichment
	err        error
}

func (f *fakeEnricher) Enrich(context.Context, Request) (*Enrichment, error) {
	return f.enrichment, f.err
}

type fakeArchiver struct {
	mu    sync.Mutex
	snaps []archive.Snapshot
}

func (f *fakeArchiver) Save(_ context.Context, snap archive.Snapshot) error {
	f.mu.Lock()
	f.snaps = append(f.snaps, snap)
	f.mu.Unlock()
	return nil
}

func TestAnalyzeTitleRequired(t *testing.T) {
	a := New(&fakeFetcher{}, nil, nil, nil, nil, nil)
	_, err := a.Analyze(context.Background(), Request{}, "")
	if !errors.Is(err, ErrTitleRequired) {
		t.Errorf("err = %v, want ErrTitleRequired", err)
	}
}

func TestAnalyzeSeedsCanonicalized(t *testing.T) {
	fetcher := &fakeFetcher{}
	a := New(fetcher, nil, nil, nil, nil, nil)

	out, err := a.Analyze(context.Background(), Request{
		Draft: redup.PostDraft{Title: "generic"},
		Seeds: []string{"R/Golang", "golang", "r/rust"},
	}, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, ok := out.Compliance["r/golang"]; !ok {
		t.Errorf("missing r/golang in %v", keys(out.Compliance))
	}
	if len(out.Compliance) != 2 {
		t.Errorf("duplicate seeds not merged: %v", keys(out.Compliance))
	}
}

func TestAnalyzeChecksRecommendedAndDiscovered(t *testing.T) {
	fetcher := &fakeFetcher{}
	enricher := &fakeEnricher{enrichment: &Enrichment{
		Recommendations: []Recommendation{{Name: "r/startups"}},
	}}
	discoverer := &fakeDiscoverer{candidates: []redup.DiscoveryCandidate{{Name: "r/entrepreneur"}}}

	a := New(fetcher, discoverer, enricher, nil, nil, nil)
	out, err := a.Analyze(context.Background(), Request{
		Draft: redup.PostDraft{Title: "generic"},
		Seeds: []string{"r/sideproject"},
	}, "tok")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, want := range []string{"r/sideproject", "r/startups", "r/entrepreneur"} {
		if _, ok := out.Compliance[want]; !ok {
			t.Errorf("missing %s in %v", want, keys(out.Compliance))
		}
	}
	if len(out.Discovered) != 1 {
		t.Errorf("discovered = %+v", out.Discovered)
	}
}

func TestAnalyzeCheckListCap(t *testing.T) {
	fetcher := &fakeFetcher{}
	var recs []Recommendation
	for i := 0; i < 30; i++ {
		recs = append(recs, Recommendation{Name: fmt.Sprintf("r/comm%02d", i)})
	}
	a := New(fetcher, nil, &fakeEnricher{enrichment: &Enrichment{Recommendations: recs}}, nil, nil, nil)

	out, err := a.Analyze(context.Background(), Request{Draft: redup.PostDraft{Title: "generic"}}, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(out.Compliance) != 20 {
		t.Errorf("checked %d communities, want cap of 20", len(out.Compliance))
	}
}

func TestAnalyzeEnrichmentFallsBackToMock(t *testing.T) {
	a := New(&fakeFetcher{}, nil, &fakeEnricher{err: errors.New("model down")}, nil, nil, nil)

	out, err := a.Analyze(context.Background(), Request{
		Draft: redup.PostDraft{Title: "generic"},
		Seeds: []string{"r/golang"},
	}, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if out.ViralityScore == 0 {
		t.Error("mock enrichment not applied")
	}
	if len(out.Recommendations) == 0 || out.Recommendations[0].Name != "r/golang" {
		t.Errorf("recommendations = %+v", out.Recommendations)
	}
}

func TestAnalyzeDegradedOnFetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]error{"r/broken": errors.New("boom")}}
	a := New(fetcher, nil, nil, nil, nil, nil)

	out, err := a.Analyze(context.Background(), Request{
		Draft: redup.PostDraft{Title: "generic"},
		Seeds: []string{"r/broken"},
	}, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	report := out.Compliance["r/broken"]
	if report == nil || report.OK || report.Score != 0 {
		t.Errorf("report = %+v", report)
	}
}

func TestAnalyzeArchivesSnapshots(t *testing.T) {
	archiver := &fakeArchiver{}
	a := New(&fakeFetcher{}, nil, nil, archiver, nil, nil)

	_, err := a.Analyze(context.Background(), Request{
		Draft: redup.PostDraft{Title: "generic"},
		Seeds: []string{"r/golang"},
	}, "")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(archiver.snaps) == 0 {
		t.Fatal("no snapshots written")
	}
	snap := archiver.snaps[0]
	if snap.Community == "" || len(snap.Rules) == 0 || snap.FetchedAt.IsZero() {
		t.Errorf("snapshot = %+v", snap)
	}
}

func keys(m map[string]*redup.ComplianceReport) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
