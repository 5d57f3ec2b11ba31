package duckdb

import (
	"encoding/json"

	"github.com/openchami/fleet-parity/internal/storage"
	"github.com/openchami/fleet-parity/pkg/nodes"
	"github.com/rs/zerolog/log"
)

func (d *DuckDBStorage) SearchHosts(opts ...storage.HostSearchOption) ([]nodes.HostRecord, error) {
	options := storage.NewHostSearchOptions(opts...)

	var queryStrings []string
	var queryArgs []interface{}

	if options.Location != "" {
		queryStrings = append(queryStrings, "location = ?")
		queryArgs = append(queryArgs, options.Location)
	}
	if options.Chassis != "" {
		queryStrings = append(queryStrings, "chassis = ?")
		queryArgs = append(queryArgs, options.Chassis)
	}
	if options.OSVersion != "" {
		queryStrings = append(queryStrings, "os_version = ?")
		queryArgs = append(queryArgs, options.OSVersion)
	}
	if options.BMCAddress != "" {
		queryStrings = append(queryStrings, "bmc_address = ?")
		queryArgs = append(queryArgs, options.BMCAddress)
	}
	if options.MAC != "" {
		queryStrings = append(queryStrings, "hostname IN (SELECT hostname FROM host_macs WHERE mac_address = ?)")
		queryArgs = append(queryArgs, options.MAC)
	}
	if options.Virtual != nil {
		queryStrings = append(queryStrings, "is_vm = ?")
		queryArgs = append(queryArgs, *options.Virtual)
	}
	if options.MissingIPv4 {
		queryStrings = append(queryStrings, "COALESCE(ipv4_address, '') = ''")
	}
	if options.MissingIPv6 {
		queryStrings = append(queryStrings, "COALESCE(ipv6_address, '') = ''")
	}

	query := buildQuery("AND", queryStrings...)

	rows, err := d.db.Query(query, queryArgs...)
	if err != nil {
		log.Error().Err(err).Msg("Error querying DuckDB for hosts")
		return nil, err
	}
	defer rows.Close()

	found := []nodes.HostRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var host nodes.HostRecord
		if err := json.Unmarshal([]byte(data), &host); err != nil {
			return nil, err
		}
		found = append(found, host)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug().Str("query", query).Interface("args", queryArgs).Int("count", len(found)).Msg("DuckDB host search complete")
	return found, nil
}

// buildQuery joins the conditions into a host search ordered by insertion.
func buildQuery(condition string, fields ...string) string {
	query := "SELECT data FROM hosts WHERE 1=1"
	for _, field := range fields {
		query += " " + condition + " " + field
	}
	return query + " ORDER BY seq"
}
