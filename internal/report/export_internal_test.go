package report

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestSheetWriter_KeepsFirstError(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sw := &sheetWriter{f: f, sheet: "Sheet1"}
	sw.set(1, 1, "ok", 0)
	if sw.err != nil {
		t.Fatalf("unexpected error: %v", sw.err)
	}

	sw.set(0, 1, "bad column", 0)
	first := sw.err
	if first == nil {
		t.Fatal("expected an error for column 0")
	}

	sw.set(2, 1, "after", 0)
	sw.width("A", "A", 10)
	if sw.err != first {
		t.Errorf("first error replaced: %v", sw.err)
	}
	if v, _ := f.GetCellValue("Sheet1", "B1"); v != "" {
		t.Errorf("writes after an error should be skipped, B1 = %q", v)
	}

	sw = &sheetWriter{f: f, sheet: "Missing"}
	sw.width("A", "A", 10)
	if sw.err == nil {
		t.Error("expected an error for an unknown sheet")
	}
}
