// Package markup turns rendered HTML into canonical markup and compares two
// canonical documents structurally.
//
// Canonical markup is produced by Normalize: entities are decoded by the
// parser, text is NFC-normalized and whitespace-collapsed (except inside
// pre, textarea, script and style), attributes are sorted, and every node is
// written on its own line with two-space indentation. Two renderings that
// differ only cosmetically normalize to the same string.
//
// A Differ parses canonical markup back into a tree and reports additions,
// removals, attribute changes and text changes, each with a node path and the
// canonical line numbers on both sides:
//
//	d := markup.NewDiffer()
//	report, err := d.Diff(expected, actual)
//	if err != nil {
//	    return err
//	}
//	for _, c := range report.Changes {
//	    fmt.Println(c.Kind, c.Path)
//	}
package markup
