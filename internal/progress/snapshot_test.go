package progress

import (
	"strings"
	"testing"
	"time"
)

func TestSnapshotEncodeRows(t *testing.T) {
	s := NewSnapshot("j1", "Video.mkv", "encode", []string{"360p", "720p"})
	s.SetEncode("360p", "encoding", 42.5, "00:30")

	v := s.View()
	if len(v.Encodes) != 2 {
		t.Fatalf("encodes = %d, want 2", len(v.Encodes))
	}
	if v.Encodes[0].Status != "encoding" || v.Encodes[0].Percent != 42.5 {
		t.Fatalf("row 0 = %+v", v.Encodes[0])
	}
	if v.Encodes[1].Status != "waiting" {
		t.Fatalf("row 1 = %+v", v.Encodes[1])
	}
}

func TestSnapshotUploadRows(t *testing.T) {
	s := NewSnapshot("j1", "Video.mkv", "encode", []string{"720p"})
	s.SetUpload("720p", "gofile", HostRunning, "", "")
	s.SetUpload("720p", "gofile", HostSuccess, "https://gofile.io/d/abc", "")
	s.SetUpload("720p", "abyss", HostSkipped, "", "not 1080p")

	v := s.View()
	rows := v.Uploads["720p"]
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].State != HostSuccess || rows[0].URL == "" {
		t.Fatalf("gofile row = %+v", rows[0])
	}
}

func TestViewIsACopy(t *testing.T) {
	s := NewSnapshot("j1", "v", "encode", []string{"360p"})
	v := s.View()
	v.Encodes[0].Status = "mutated"
	if s.View().Encodes[0].Status == "mutated" {
		t.Fatal("View must not alias internal state")
	}
}

func TestAttachFoldsUpdates(t *testing.T) {
	s := NewSnapshot("j1", "v", "encode", []string{"480p"})
	r := s.Attach()

	speed := "1.5MiB/s"
	total := int64(10 << 20)
	eta := 4 * time.Second
	r.Update(Update{JobID: "j1", Stage: StageDownloading, Percent: 45.2, Speed: &speed, Bytes: &total, ETA: &eta})

	v := s.View()
	if v.Stage != StageDownloading {
		t.Fatalf("stage = %s", v.Stage)
	}
	if v.Download.Percent != 45.2 || v.Download.Speed != speed || v.Download.TotalBytes != total {
		t.Fatalf("download = %+v", v.Download)
	}

	r.Update(Update{JobID: "j1", Stage: StageEncoding, Resolution: "480p", Percent: 12})
	v = s.View()
	if v.Encodes[0].Percent != 12 {
		t.Fatalf("encode row = %+v", v.Encodes[0])
	}
}

func TestRenderTextClampsPercent(t *testing.T) {
	s := NewSnapshot("j1", "Video.mkv", "encode", []string{"360p"})
	s.SetStage(StageEncoding)
	s.SetEncode("360p", "encoding", 140, "")
	out := RenderText(s.View(), SysLoad{})
	if !strings.Contains(out, "100.0%") {
		t.Fatalf("render should clamp to 100%%:\n%s", out)
	}
	if strings.Contains(out, "140") {
		t.Fatalf("render leaked raw percent:\n%s", out)
	}
}
