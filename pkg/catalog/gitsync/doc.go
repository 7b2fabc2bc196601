// Package gitsync keeps a metric catalog in step with a YAML file tracked in
// a Git repository.
//
// A Repository clones the configured branch into a local directory and pulls
// new commits. A Syncer loads the catalog file from the checked-out commit
// into a catalog.MemoryCatalog and then polls for new commits:
//
//	repo, err := gitsync.NewRepository(&gitsync.Config{
//	    URL:    "https://github.com/acme/metrics.git",
//	    Branch: "main",
//	    Path:   "catalog.yaml",
//	})
//	if err != nil {
//	    return err
//	}
//	if err := repo.Clone(ctx); err != nil {
//	    return err
//	}
//
//	s := gitsync.NewSyncer(repo, cat, time.Minute)
//	if _, err := s.Load(); err != nil {
//	    return err
//	}
//	if err := s.Start(ctx); err != nil {
//	    return err
//	}
//	defer s.Stop()
//
// A commit whose catalog file fails validation is rejected: the previous
// definitions stay active and the commit is not retried until a newer one
// arrives. Commits that do not touch the catalog file are ignored.
//
// Authentication supports HTTPS tokens, SSH keys, and anonymous access.
package gitsync
