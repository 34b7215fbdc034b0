package debrid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newAllDebridTestServer(t *testing.T, handler http.HandlerFunc) *AllDebridClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAllDebridClient("secret", srv.URL, testTimeouts())
}

const allDebridStatusBody = `{"status":"success","data":{"magnets":{"id":7,"filename":"Suzhal S01","hash":"ABC","files":[
	{"n":"Suzhal S01","e":[
		{"n":"Suzhal.S01E01.mkv","s":100,"l":"https://alldebrid.example/f/1"},
		{"n":"Suzhal.S01E02.mkv","s":300,"l":"https://alldebrid.example/f/2"},
		{"n":"sample.txt","s":1}
	]}
]}}}`

func TestAllDebridIsCached(t *testing.T) {
	client := newAllDebridTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4/magnet/instant" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("agent") == "" {
			t.Error("agent parameter missing")
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"magnets":[{"hash":"` + testHash + `","instant":true}]}}`))
	})
	if !client.IsCached(context.Background(), testHash) {
		t.Fatal("expected cached")
	}

	failing := newAllDebridTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error","error":{"code":"AUTH_BAD_APIKEY","message":"bad key"}}`))
	})
	if failing.IsCached(context.Background(), testHash) {
		t.Fatal("expected error status to report not cached")
	}
}

func TestAllDebridRegisterMagnet(t *testing.T) {
	client := newAllDebridTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v4/magnet/upload" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("magnets[]") == "" {
			t.Error("magnet missing from form")
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"magnets":[{"id":7,"hash":"abc","ready":true}]}}`))
	})
	handle, ok := client.RegisterMagnet(context.Background(), "magnet:?xt=urn:btih:"+testHash, "ignored")
	if !ok || handle != "7" {
		t.Fatalf("RegisterMagnet = (%q, %v)", handle, ok)
	}
}

func TestAllDebridJobInfoFlattensTree(t *testing.T) {
	client := newAllDebridTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v4.1/magnet/status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(allDebridStatusBody))
	})
	job, ok := client.JobInfo(context.Background(), "7")
	if !ok {
		t.Fatal("expected job")
	}
	if len(job.Files) != 2 {
		t.Fatalf("files = %+v", job.Files)
	}
	if job.Files[1].ID != "2" || job.Files[1].Name != "Suzhal S01/Suzhal.S01E02.mkv" || job.Files[1].Size != 300 {
		t.Fatalf("second file = %+v", job.Files[1])
	}
	if job.Hash != "abc" {
		t.Fatalf("hash = %q", job.Hash)
	}
}

func TestAllDebridDownloadLink(t *testing.T) {
	client := newAllDebridTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4.1/magnet/status":
			_, _ = w.Write([]byte(allDebridStatusBody))
		case "/v4/link/unlock":
			_ = r.ParseForm()
			if got := r.PostForm.Get("link"); got != "https://alldebrid.example/f/2" {
				t.Errorf("unlock link = %q", got)
			}
			_, _ = w.Write([]byte(`{"status":"success","data":{"link":"https://dl.alldebrid.example/E02.mkv"}}`))
		default:
			http.NotFound(w, r)
		}
	})
	link, ok := client.DownloadLink(context.Background(), "7", "2")
	if !ok || link != "https://dl.alldebrid.example/E02.mkv" {
		t.Fatalf("DownloadLink = (%q, %v)", link, ok)
	}
	if _, ok := client.DownloadLink(context.Background(), "7", "9"); ok {
		t.Fatal("expected out of range file to be absent")
	}
}

func TestAllDebridDownloadLinkDefaultsToLargestFile(t *testing.T) {
	var unlocked []string
	client := newAllDebridTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4.1/magnet/status":
			if r.URL.Query().Get("id") == "8" {
				_, _ = w.Write([]byte(`{"status":"success","data":{"magnets":{"id":8,"filename":"Leo.mkv","hash":"DEF","files":[
					{"n":"Leo.mkv","s":900,"l":"https://alldebrid.example/f/leo"}]}}}`))
				return
			}
			_, _ = w.Write([]byte(allDebridStatusBody))
		case "/v4/link/unlock":
			_ = r.ParseForm()
			unlocked = append(unlocked, r.PostForm.Get("link"))
			_, _ = w.Write([]byte(`{"status":"success","data":{"link":"https://dl.alldebrid.example/default.mkv"}}`))
		default:
			http.NotFound(w, r)
		}
	})

	for _, handle := range []string{"7", "8"} {
		link, ok := client.DownloadLink(context.Background(), handle, "")
		if !ok || link != "https://dl.alldebrid.example/default.mkv" {
			t.Fatalf("DownloadLink(%s, \"\") = (%q, %v)", handle, link, ok)
		}
	}
	want := []string{"https://alldebrid.example/f/2", "https://alldebrid.example/f/leo"}
	if len(unlocked) != 2 || unlocked[0] != want[0] || unlocked[1] != want[1] {
		t.Fatalf("unlocked = %v, want %v", unlocked, want)
	}
}
