package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gewnthar/logbook/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTrack   = `{"type":"FeatureCollection","features":[]}`
	testProfile = "1600000000,1000,10,1.5,45.1,6.1\n1600000001,1200,12,-0.5,45.2,6.2\n"
	testHeader  = "date,duration,score,code,hash,track_file,profile_file\n"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func TestParseManifest(t *testing.T) {
	rows, err := ParseManifest(strings.NewReader(testHeader +
		"2021-05-01,65,3500.5,fai,abc,t1.json,p1.csv\n" +
		"2021-06-15,45,3000,free,,t2.json,p2.csv\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, models.ManifestRow{
		Date: "2021-05-01", Duration: 65, Score: 3500.5, Code: "fai",
		Hash: "abc", TrackFile: "t1.json", ProfileFile: "p1.csv",
	}, rows[0])
	assert.Empty(t, rows[1].Hash)
}

func TestParseManifestBadNumber(t *testing.T) {
	_, err := ParseManifest(strings.NewReader(testHeader + "2021-05-01,long,1,fai,,a,b\n"))
	assert.Error(t, err)
}

func TestBuildRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tracks/t1.json", testTrack)
	writeFile(t, dir, "p1.csv", testProfile)
	writeFile(t, dir, "bad.csv", "1600000000,high,1,1,1,1\n")

	rows := []models.ManifestRow{
		{Date: "2021-05-01", Duration: 65, Score: 3500, Code: "fai", TrackFile: "tracks/t1.json", ProfileFile: "p1.csv"},
		{Date: "01/05/2021", Duration: 65, TrackFile: "tracks/t1.json", ProfileFile: "p1.csv"},
		{Date: "2021-05-02", Duration: 30, TrackFile: "missing.json", ProfileFile: "p1.csv"},
		{Date: "2021-05-03", Duration: 30, TrackFile: "tracks/t1.json", ProfileFile: "bad.csv"},
		{Date: "2021-05-04", Duration: 30, TrackFile: "../outside.json", ProfileFile: "p1.csv"},
		{Date: "2021-05-05", Duration: 20, Code: "tri", Hash: "given", TrackFile: "tracks/t1.json", ProfileFile: "p1.csv"},
	}

	records, rejected := BuildRecords(rows, dir)
	require.Len(t, records, 2)
	require.Len(t, rejected, 4)

	assert.Equal(t, models.CodeFAI, records[0].Code)
	assert.Equal(t, testTrack, records[0].Track)
	assert.Equal(t, testProfile, records[0].Profile)
	assert.Equal(t, ContentHash(testTrack, testProfile), records[0].Hash)
	assert.Equal(t, "given", records[1].Hash)

	assert.Equal(t, 3, rejected[0].Line)
	assert.Contains(t, rejected[0].Error(), "manifest line 3")
	assert.Equal(t, 6, rejected[3].Line)
}

func TestContentHashSeparatesFields(t *testing.T) {
	assert.NotEqual(t, ContentHash("ab", "c"), ContentHash("a", "bc"))
	assert.Len(t, ContentHash("", ""), 64)
}

func TestLocalName(t *testing.T) {
	p, err := localName("/data", "a/b.csv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "a", "b.csv"), p)

	p, err = localName("/data", "../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data", "etc", "passwd"), p)

	_, err = localName("/data", "http://elsewhere/x")
	assert.Error(t, err)
	_, err = localName("/data", "")
	assert.Error(t, err)
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	d := NewDownloader(0)
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "file.txt")

	require.NoError(t, d.DownloadFile(context.Background(), srv.URL+"/file", dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	err = d.DownloadFile(context.Background(), srv.URL+"/missing", filepath.Join(dir, "gone.txt"))
	assert.ErrorContains(t, err, "404")
	assert.NoFileExists(t, filepath.Join(dir, "gone.txt"))
}

func TestDownloadBundle(t *testing.T) {
	files := map[string]string{
		"/logbook/manifest.csv": testHeader + "2021-05-01,65,3500,fai,,tracks/t1.json,p1.csv\n" +
			"2021-05-02,30,1000,free,,tracks/t1.json,p1.csv\n",
		"/logbook/tracks/t1.json": testTrack,
		"/logbook/p1.csv":         testProfile,
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	rows, err := NewDownloader(0).DownloadBundle(context.Background(), srv.URL+"/logbook/manifest.csv", dir)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, int32(3), hits.Load())
	assert.FileExists(t, filepath.Join(dir, ManifestFileName))

	records, rejected := BuildRecords(rows, dir)
	assert.Empty(t, rejected)
	assert.Len(t, records, 2)
}

func TestDownloadBundleMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/manifest.csv" {
			w.Write([]byte(testHeader + "2021-05-01,65,3500,fai,,t.json,p.csv\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewDownloader(0).DownloadBundle(context.Background(), srv.URL+"/manifest.csv", t.TempDir())
	assert.Error(t, err)
}
