package classfile_test

import (
	"testing"

	"github.com/cwbudde/minijvm/internal/classfile"
	"github.com/cwbudde/minijvm/internal/classtest"
)

func TestParseRejectsBadMagic(t *testing.T) {
	_, err := classfile.Parse([]byte{0, 0, 0, 0}, "bad.class")
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
}

func TestParseFindsMainMethod(t *testing.T) {
	b := classtest.New()
	b.Method("main", "([Ljava/lang/String;)V", 2, 1, []byte{0xb1}) // return

	cf, err := classfile.Parse(b.Bytes(), "Main.class")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	m, ok := cf.FindMethod("main", "([Ljava/lang/String;)V")
	if !ok {
		t.Fatal("expected to find main method")
	}
	if m.MaxStack() != 2 || m.MaxLocals() != 1 {
		t.Fatalf("unexpected max_stack/max_locals: %d/%d", m.MaxStack(), m.MaxLocals())
	}
	if m.ParamCount() != 1 {
		t.Fatalf("expected 1 param slot, got %d", m.ParamCount())
	}
}

func TestFindMethodFromIndexResolvesMethodref(t *testing.T) {
	b := classtest.New()
	mulRef := b.Method("mul", "(II)I", 2, 2, []byte{0x1a, 0x1b, 0x68, 0xac}) // iload_0, iload_1, imul, ireturn
	b.Method("main", "([Ljava/lang/String;)V", 2, 1, []byte{0xb1})

	cf, err := classfile.Parse(b.Bytes(), "Main.class")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	m, err := cf.FindMethodFromIndex(mulRef)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if m.Name != "mul" || m.ParamCount() != 2 {
		t.Fatalf("resolved wrong method: %+v", m)
	}
}

func TestConstantInt(t *testing.T) {
	b := classtest.New()
	idx := b.Integer(-7)
	b.Method("main", "([Ljava/lang/String;)V", 1, 1, []byte{0xb1})

	cf, err := classfile.Parse(b.Bytes(), "Main.class")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	v, ok := cf.ConstantInt(idx)
	if !ok || v != -7 {
		t.Fatalf("expected -7, got %d (ok=%v)", v, ok)
	}
}

func TestParseRejectsDoubleDescriptorAtLoadTime(t *testing.T) {
	b := classtest.New()
	b.Method("badMethod", "(D)V", 2, 1, []byte{0xb1})
	b.Method("main", "([Ljava/lang/String;)V", 1, 1, []byte{0xb1})

	_, err := classfile.Parse(b.Bytes(), "Main.class")
	if err == nil {
		t.Fatal("expected a boundary error for a double-typed descriptor, discovered at load time rather than first invokestatic")
	}
}

func TestParseRejectsTruncatedFile(t *testing.T) {
	b := classtest.New()
	b.Method("main", "([Ljava/lang/String;)V", 1, 1, []byte{0xb1})
	full := b.Bytes()

	_, err := classfile.Parse(full[:len(full)-3], "Main.class")
	if err == nil {
		t.Fatal("expected an error for a truncated class file")
	}
}
