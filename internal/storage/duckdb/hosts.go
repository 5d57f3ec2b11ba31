package duckdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openchami/fleet-parity/internal/storage"
	"github.com/openchami/fleet-parity/pkg/nodes"
)

// SaveHost inserts or replaces a host. A replaced host keeps its place in search order.
func (d *DuckDBStorage) SaveHost(host nodes.HostRecord) error {
	data, err := json.Marshal(host)
	if err != nil {
		return err
	}

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO hosts (hostname, location, chassis, os_version, bmc_address, is_vm, ipv4_address, ipv6_address, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hostname) DO UPDATE SET
			location = excluded.location,
			chassis = excluded.chassis,
			os_version = excluded.os_version,
			bmc_address = excluded.bmc_address,
			is_vm = excluded.is_vm,
			ipv4_address = excluded.ipv4_address,
			ipv6_address = excluded.ipv6_address,
			data = excluded.data`,
		host.Hostname, host.Location, host.Chassis, string(host.OSVersion), host.BMCAddress,
		host.IsVirtualMachine, host.IPv4Address, host.IPv6Address, string(data))
	if err != nil {
		return fmt.Errorf("upsert host: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM host_macs WHERE hostname = ?`, host.Hostname); err != nil {
		return err
	}
	for _, iface := range host.Interfaces {
		if iface.MACAddress == "" {
			continue
		}
		if _, err := tx.Exec(`INSERT INTO host_macs (hostname, mac_address) VALUES (?, ?)`, host.Hostname, iface.MACAddress); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DuckDBStorage) GetHost(hostname string) (nodes.HostRecord, error) {
	var data string
	err := d.db.QueryRow(`SELECT data FROM hosts WHERE hostname = ?`, hostname).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nodes.HostRecord{}, storage.ErrNotFound
	}
	if err != nil {
		return nodes.HostRecord{}, err
	}
	var host nodes.HostRecord
	err = json.Unmarshal([]byte(data), &host)
	return host, err
}

func (d *DuckDBStorage) DeleteHost(hostname string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM hosts WHERE hostname = ?`, hostname)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	if _, err := tx.Exec(`DELETE FROM host_macs WHERE hostname = ?`, hostname); err != nil {
		return err
	}
	return tx.Commit()
}
