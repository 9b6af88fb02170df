/*
Package retriever finds and downloads satellite products from a Data Hub
Service (DHuS) catalog, such as the Copernicus Sentinel hubs.

The retriever worker is responsible for:
  - Splitting a large area of interest into polygons the catalog accepts
  - Building one OpenSearch query per polygon from the search filters
  - Merging the per-tile matches into a deduplicated listing (qry_results)
  - Downloading manifests or full products, skipping what is already present
  - Verifying products against the catalog MD5 and recording failures

Architecture

	├── cmd/                    # dhusget command (cobra)
	├── internal/
	│   ├── domain/             # Entities, typed errors, ports
	│   │   └── service/        # Tiling, query building, paths, time stamps
	│   ├── usecase/            # Search driver, aggregation, downloads, run
	│   ├── profile/            # Saved searches (YAML)
	│   └── adapters/
	│       ├── http/           # Authenticated HTTP client with retries
	│       └── catalog/        # OpenSearch/Atom catalog client
	└── mocks/                  # testify mocks of the domain ports

Artifacts go through the shared object storage port, on the local
filesystem by default or to S3:

	<output>/qry_results
	<output>/MANIFEST/<title>_manifest_safe
	<output>/MANIFEST/.last_time_stamp
	<output>/PRODUCT/<title>
	<output>/PRODUCT/.last_time_stamp
	<output>/PRODUCT/.failed_md5

Tiling

An area wider or taller than the tile step is covered by a regular grid of
cells that share their edges exactly. An area of 25 by 5 degrees with a
10 degree step becomes 4 by 2 cells, each queried separately.

Incremental runs

Each download batch writes its completion time to .last_time_stamp. Passing
that file back with --time-file restricts the next search to products
ingested since, and files already on disk are never fetched again:

	dhusget https://scihub.copernicus.eu/dhus -u alice -p secret \
		-T GRD -c -95,55,-60,80 -f /data/PRODUCT/.last_time_stamp \
		-d product -o /data

The time stamp advances even when some products failed. Products that failed
their checksum stay on disk and are listed in .failed_md5; remove them to
have them fetched again.

Observability

  - Structured logging with zerolog; every entry carries the run_id
  - Prometheus metrics, written to METRICS_TEXTFILE at exit
  - OpenTelemetry spans per tile query and per artifact (TRACING_ENABLED)
*/
package retriever
