// Package cli implements the placementctl command-line interface.
//
// # Overview
//
// placementctl manages resource provider inventories against a placement
// service: per-class capacity records (total, reserved, min/max unit, step
// size, allocation ratio), aggregate-scoped bulk updates, custom resource
// classes, and consumer allocations.
//
// # Commands
//
// inventory - inspect and mutate provider inventories:
//
//	placementctl inventory list <rp_uuid>
//	placementctl inventory show <rp_uuid> VCPU
//	placementctl inventory set <rp_uuid> VCPU=8 VCPU:max_unit=4 MEMORY_MB=1024
//	placementctl inventory set <agg_uuid> --aggregate DISK_GB=256
//	placementctl inventory delete <rp_uuid> --resource-class VCPU
//	placementctl inventory class set <rp_uuid> MEMORY_MB --total 2048 --step-size 128
//
// `inventory set` is a full replace: the provider ends up with exactly the
// submitted classes, and omitted classes are deleted unless an allocation
// holds them in use. `inventory class set` updates a single class without
// touching the rest.
//
// resource-provider - register and list providers, set aggregate membership:
//
//	placementctl resource-provider create --name compute-0
//	placementctl resource-provider list
//	placementctl resource-provider aggregate set <rp_uuid> <agg_uuid>...
//
// resource-class - list the class vocabulary, create CUSTOM_* classes:
//
//	placementctl resource-class list
//	placementctl resource-class create CUSTOM_FPGA
//
// allocation - record consumer claims against providers:
//
//	placementctl allocation set <consumer_uuid> --allocation rp=<rp_uuid>,VCPU=2
//
// serve - run the bundled in-memory placement service:
//
//	placementctl serve --port 8778 --seed fixtures.yaml
//
// # Global Flags
//
//	--endpoint, -e     placement service endpoint (PLACEMENT_ENDPOINT)
//	--api-version      microversion to request (PLACEMENT_API_VERSION)
//	--format, -t       output format: json, yaml, table (default: table)
//	--output, -o       output file path (default: stdout)
//	--debug            enable debug logging
//
// # Microversions
//
// Every request carries a placement API microversion. Operations gated to a
// newer version than the one requested fail client-side before any network
// traffic: aggregate membership needs 1.1, resource classes 1.2, aggregate
// member resolution 1.3, and whole-provider inventory deletion 1.5.
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/placement-tools/placementctl/pkg/cli.version=1.0.0'"
package cli
