package zabbix

import (
	"context"
	"os/exec"
	"testing"
)

func TestSend(t *testing.T) {
	ok, err := exec.LookPath("true")
	if err != nil {
		t.Skip("no true binary")
	}
	z := Sender{Server: "zabbix", Host: "smppsend", Binary: ok}
	if err := z.SendAll(context.Background(), [][2]string{{"smppsend.submitted", "3"}}); err != nil {
		t.Fatal(err)
	}
	fail, err := exec.LookPath("false")
	if err != nil {
		t.Skip("no false binary")
	}
	z.Binary = fail
	if err := z.Send(context.Background(), "smppsend.exit", "0"); err == nil {
		t.Error("expected error from a failing sender")
	}
}
