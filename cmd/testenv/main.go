package main

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/djportal/accounts/persistent"
	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
	"github.com/sirupsen/logrus"
)

// Starts a throwaway postgres container, runs `go test` against it and
// removes the container afterwards.
//
//	go run ./cmd/testenv [package pattern]

func main() {
	flag.Parse()

	logrus.Println("Starting postgres db container")
	shutdownPgDb, err := createTestPgDb()
	if err != nil {
		logrus.WithError(err).Fatalln("Could not create test database.")
	}

	pattern := "./..."
	if flag.NArg() > 0 {
		pattern = flag.Arg(0)
	}
	logrus.WithField("pattern", pattern).Println("Running tests...")
	ok := runTests(pattern)

	logrus.Println("Tests done. Shutting down test db.")
	shutdownPgDb()
	if !ok {
		os.Exit(1)
	}
}

func runTests(pattern string) bool {
	c := exec.Command("go", "test", pattern)
	c.Env = os.Environ()
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		logrus.WithError(err).Errorln("Tests failed.")
		return false
	}
	return true
}

// createTestPgDb starts a postgres container and exports its dsn for
// persistent.PgOpenTest. Returns the container shutdown func.
func createTestPgDb() (func(), error) {
	psgPassB := make([]byte, 30)
	if _, err := rand.Read(psgPassB); err != nil {
		return nil, fmt.Errorf("password generate: %w", err)
	}
	psgPass := base32.StdEncoding.EncodeToString(psgPassB)

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("docker connect: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16.2",
		Env:        []string{"POSTGRES_PASSWORD=" + psgPass},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, fmt.Errorf("resource start: %w", err)
	}
	if err := resource.Expire(600); err != nil {
		logrus.WithError(err).Warningln("Could not set container expiry.")
	}
	shutdownResource := func() {
		if err := pool.Purge(resource); err != nil {
			logrus.WithError(err).Warningln("Could not purge resource.")
		}
	}

	pgDsn := fmt.Sprintf("postgresql://postgres:%s@localhost:%s/postgres?sslmode=disable",
		psgPass, resource.GetPort("5432/tcp"))
	pool.MaxWait = 30 * time.Second
	err = pool.Retry(func() error {
		db, err := persistent.PgOpen(context.Background(), pgDsn, false)
		if err != nil {
			return err
		}
		defer db.Close()
		return persistent.CreateSchema(context.Background(), db)
	})
	if err != nil {
		shutdownResource()
		return nil, fmt.Errorf("database connect: %w", err)
	}

	persistent.SetTestEnvDsn(pgDsn)
	return shutdownResource, nil
}
