// Package zabbix reports item values to a Zabbix server with zabbix_sender.
package zabbix

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

type Sender struct {
	Server string // Zabbix server or proxy
	Host   string // host name the items belong to
	Binary string // zabbix_sender by default
}

// Send reports one item value.
func (z Sender) Send(ctx context.Context, key, value string) error {
	bin := z.Binary
	if bin == "" {
		bin = "zabbix_sender"
	}
	out, err := exec.CommandContext(ctx, bin,
		"-z", z.Server,
		"-s", z.Host,
		"-k", key,
		"-o", value).CombinedOutput()
	if err != nil {
		return fmt.Errorf("zabbix %s: %w: %s", key, err, bytes.TrimSpace(out))
	}
	return nil
}

// SendAll reports the values in order and stops at the first error.
func (z Sender) SendAll(ctx context.Context, items [][2]string) error {
	for _, item := range items {
		if err := z.Send(ctx, item[0], item[1]); err != nil {
			return err
		}
	}
	return nil
}
