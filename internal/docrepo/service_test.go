package docrepo

import (
	"errors"
	"testing"
	"time"
)

func TestSaveVersionReturnsCommitInfo(t *testing.T) {
	svc := New(t.TempDir())

	before := time.Now().Add(-time.Minute)
	info, err := svc.SaveVersion("msa-2026", "1. Term\nThe term is one year.", "alex", "initial draft")
	if err != nil {
		t.Fatalf("SaveVersion: %v", err)
	}

	if len(info.Hash) != 40 {
		t.Errorf("Hash = %q, want 40-char commit hash", info.Hash)
	}
	if info.Author != "alex" {
		t.Errorf("Author = %q, want alex", info.Author)
	}
	if info.Message != "initial draft" {
		t.Errorf("Message = %q, want initial draft", info.Message)
	}
	if info.When.Before(before) || info.When.After(time.Now().Add(time.Minute)) {
		t.Errorf("When = %v, not near now", info.When)
	}

	history, err := svc.History("msa-2026", 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 || history[0] != info {
		t.Errorf("History head = %+v, want %+v", history, info)
	}
}

func TestSaveAndGetVersion(t *testing.T) {
	svc := New(t.TempDir())

	v1, err := svc.SaveVersion("msa-2026", "1. Term\nThe term is one year.", "alex", "initial draft")
	if err != nil {
		t.Fatalf("SaveVersion v1: %v", err)
	}
	v2, err := svc.SaveVersion("msa-2026", "1. Term\nThe term is two years.", "alex", "extend term")
	if err != nil {
		t.Fatalf("SaveVersion v2: %v", err)
	}
	if v1.Hash == v2.Hash {
		t.Fatal("distinct versions share a commit hash")
	}

	got1, err := svc.GetVersion("msa-2026", v1.Hash)
	if err != nil {
		t.Fatalf("GetVersion v1: %v", err)
	}
	if got1 != "1. Term\nThe term is one year." {
		t.Errorf("v1 text = %q", got1)
	}

	head, err := svc.GetVersion("msa-2026", "HEAD")
	if err != nil {
		t.Fatalf("GetVersion HEAD: %v", err)
	}
	if head != "1. Term\nThe term is two years." {
		t.Errorf("HEAD text = %q", head)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	svc := New(t.TempDir())

	if _, err := svc.SaveVersion("nda", "first", "pat", "v1"); err != nil {
		t.Fatalf("SaveVersion: %v", err)
	}
	if _, err := svc.SaveVersion("nda", "second", "pat", "v2"); err != nil {
		t.Fatalf("SaveVersion: %v", err)
	}

	history, err := svc.History("nda", 10)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d versions, want 2", len(history))
	}
	if history[0].Message != "v2" || history[1].Message != "v1" {
		t.Errorf("history not newest first: %+v", history)
	}
}

func TestUnknownAgreement(t *testing.T) {
	svc := New(t.TempDir())

	if _, err := svc.GetVersion("ghost", "HEAD"); !errors.Is(err, ErrAgreementNotFound) {
		t.Errorf("GetVersion error = %v, want ErrAgreementNotFound", err)
	}
	if _, err := svc.History("ghost", 5); !errors.Is(err, ErrAgreementNotFound) {
		t.Errorf("History error = %v, want ErrAgreementNotFound", err)
	}
	if svc.Exists("ghost") {
		t.Error("Exists should be false for unknown agreement")
	}
}
