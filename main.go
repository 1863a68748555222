// Command oci-dns-migration-script migrates zones from Dyn Managed DNS to
// OCI DNS. Primary zones are fetched by zone transfer and recreated from
// the resulting zone file; secondary zones are recreated from their master
// list, with any TSIG key found or created in OCI first.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/oracle/oci-go-sdk/v65/common"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/dyninc/oci-dns-migration-script/dynect"
	"github.com/dyninc/oci-dns-migration-script/migrate"
	"github.com/dyninc/oci-dns-migration-script/ocidns"
)

var (
	zoneName        = flag.String("zone", "", "name of the zone to migrate, required unless -zones-file is used")
	zonesFile       = flag.String("zones-file", "", "file containing newline-separated names of zones to migrate, required unless -zone is used")
	dynCustomer     = flag.String("dyn-customer", "", "name of the Dynect customer which owns the zones to be migrated")
	dynUser         = flag.String("dyn-user", "", "username of a Dynect user with permission to manage the zones")
	dynPassword     = flag.String("dyn-password", "", "password of the Dynect user, prompted for when empty")
	xfrServer       = flag.String("xfr-server", dynect.DefaultTransferServer, "server to request zone transfers from")
	compartment     = flag.String("compartment", "", "OCI compartment to migrate zones into, defaults to the tenancy")
	tsigCompartment = flag.String("tsig-key-compartment", "", "OCI compartment containing tsig keys used by migrated zones, defaults to -compartment")
	ociConfig       = flag.String("oci-config", "", "OCI config file to use for authentication, defaults to ~/.oci/config")
	ociProfile      = flag.String("oci-profile", "DEFAULT", "OCI config profile to use for authentication")
	ignoreFailures  = flag.Bool("ignore-failures", true, "skip zones that fail to migrate and keep going, set to false to stop at the first failure")
	pollInterval    = flag.Duration("poll-interval", migrate.DefaultPollInterval, "interval between lifecycle state polls")
	pollAttempts    = flag.Int("poll-attempts", migrate.DefaultPollAttempts, "number of lifecycle state polls before giving up")
	statusPort      = flag.String("status-port", "", "port to serve migration status endpoints on, disabled when empty")
	verbose         = flag.Bool("verbose", false, "enable verbose output")
)

func main() {
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if (*zoneName == "") == (*zonesFile == "") {
		log.Fatal("exactly one of -zone and -zones-file is required")
	}
	if *dynCustomer == "" || *dynUser == "" {
		log.Fatal("-dyn-customer and -dyn-user are required")
	}

	zones, err := zoneNames()
	check(err)

	password := *dynPassword
	if password == "" {
		password, err = promptPassword()
		check(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := common.CustomProfileConfigProvider(*ociConfig, *ociProfile)

	zoneCompartment := *compartment
	if zoneCompartment == "" {
		zoneCompartment, err = provider.TenancyOCID()
		check(err)
	}
	keyCompartment := *tsigCompartment
	if keyCompartment == "" {
		keyCompartment = zoneCompartment
	}

	source, err := dynect.Login(ctx, dynect.Config{
		Customer:       *dynCustomer,
		Username:       *dynUser,
		Password:       password,
		TransferServer: *xfrServer,
		Log:            log.StandardLogger(),
	})
	check(err)
	defer func() {
		if err := source.Logout(context.Background()); err != nil {
			log.Warnf("dynect logout: %v", err)
		}
	}()

	dest, err := ocidns.New(provider)
	check(err)

	poller := migrate.NewPoller(dest)
	poller.Interval = *pollInterval
	poller.MaxAttempts = *pollAttempts

	runner := &migrate.Runner{
		Migrator: &migrate.Migrator{
			Source: source,
			Dest:   dest,
			Keys: &migrate.KeyResolver{
				Source:      source,
				Dest:        dest,
				Poller:      poller,
				Compartment: keyCompartment,
				Log:         log.StandardLogger(),
			},
			Poller:      poller,
			Compartment: zoneCompartment,
			Log:         log.StandardLogger(),
		},
		IgnoreFailures: *ignoreFailures,
		Log:            log.StandardLogger(),
	}
	if *statusPort != "" {
		runner.Tracker = serveStatus(*statusPort, len(zones))
	}

	results, err := runner.Run(ctx, zones)
	summarize(results)
	if err != nil {
		log.Fatalf("migration halted: %v", err)
	}
}

// zoneNames returns the zones to migrate in the order given, either the
// single -zone or the lines of -zones-file with blanks skipped.
func zoneNames() ([]string, error) {
	if *zoneName != "" {
		return []string{*zoneName}, nil
	}
	data, err := os.ReadFile(*zonesFile)
	if err != nil {
		return nil, err
	}
	var zones []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			zones = append(zones, line)
		}
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("no zone names found in %s", *zonesFile)
	}
	return zones, nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Dynect password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(password), nil
}

func summarize(results []migrate.Result) {
	var created, skipped, failed int
	for _, r := range results {
		switch r.Outcome {
		case migrate.OutcomeCreated:
			created++
		case migrate.OutcomeSkipped:
			skipped++
		default:
			failed++
		}
	}
	log.WithFields(log.Fields{
		"created": created,
		"skipped": skipped,
		"failed":  failed,
	}).Infof("processed %d zones", len(results))
}

func check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
