package cli

import (
	"context"
	"fmt"
)

func (a *App) cmdAdd(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: secretsync add <path>")
		return 2
	}

	rel, added, err := a.registry.Add(args[0])
	if err != nil {
		return a.report(err)
	}
	if added {
		fmt.Fprintf(a.out, "tracking %s\n", rel)
	} else {
		fmt.Fprintf(a.out, "%s is already tracked\n", rel)
	}
	return 0
}

func (a *App) cmdRemove(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(a.errOut, "usage: secretsync remove <path>")
		return 2
	}

	rel, removed, err := a.registry.Remove(args[0])
	if err != nil {
		return a.report(err)
	}
	// Removing an untracked path still exits 0; only the message differs.
	if removed {
		fmt.Fprintf(a.out, "stopped tracking %s\n", rel)
	} else {
		fmt.Fprintf(a.out, "%s was not tracked\n", rel)
	}
	return 0
}

func (a *App) cmdList() int {
	statuses, err := a.registry.Status()
	if err != nil {
		return a.report(err)
	}
	for _, st := range statuses {
		marker := " "
		if !st.Exists {
			marker = "!"
		}
		fmt.Fprintf(a.out, "%s %s\n", marker, st.Path)
	}
	return 0
}

func (a *App) cmdStatus() int {
	statuses, err := a.registry.Status()
	if err != nil {
		return a.report(err)
	}

	missing := 0
	for _, st := range statuses {
		if st.Exists {
			fmt.Fprintf(a.out, "present  %s\n", st.Path)
		} else {
			fmt.Fprintf(a.out, "missing  %s\n", st.Path)
			missing++
		}
	}
	fmt.Fprintf(a.out, "%d tracked, %d missing\n", len(statuses), missing)

	// Nonzero when anything is missing, so scripts can gate a push on it.
	if missing > 0 {
		return 1
	}
	return 0
}

func (a *App) cmdPush(ctx context.Context, group string) int {
	s, err := a.newSyncer()
	if err != nil {
		return a.report(err)
	}

	pw, err := a.passphrase()
	if err != nil {
		return a.report(err)
	}

	md, err := s.Push(ctx, group, pw)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "pushed %s: %d files, %d bytes, %d chunk(s)\n",
		group, md.FileCount, md.TotalSize, md.ChunkCount)
	return 0
}

func (a *App) cmdPull(ctx context.Context, group string) int {
	s, err := a.newSyncer()
	if err != nil {
		return a.report(err)
	}

	pw, err := a.passphrase()
	if err != nil {
		return a.report(err)
	}

	md, err := s.Pull(ctx, group, pw)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "pulled %s: %d files (uploaded %s)\n",
		group, md.FileCount, md.UploadedAt.Format("2006-01-02 15:04:05 MST"))
	return 0
}

func (a *App) cmdGroups(ctx context.Context) int {
	s, err := a.newSyncer()
	if err != nil {
		return a.report(err)
	}

	groups, err := s.Groups(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(groups) == 0 {
		fmt.Fprintln(a.out, "no remote groups")
		return 0
	}
	for _, g := range groups {
		fmt.Fprintln(a.out, g)
	}
	return 0
}

func (a *App) cmdDelete(ctx context.Context, group string) int {
	s, err := a.newSyncer()
	if err != nil {
		return a.report(err)
	}

	if err := s.Delete(ctx, group); err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "deleted group %s\n", group)
	return 0
}
