// Package vstore provides a hierarchical virtual storage layer that composes
// independent backends into one namespace with overlay merge semantics.
//
// Entries are addressed by Path values: index paths name directory-like
// containers, object paths name stored payloads. Every backend implements the
// four-operation Storage contract (Lookup, Load, Store, Remove); the
// VirtualStorage composite routes calls to mounted backends and merges
// results across overlays by priority.
//
// Basic usage (in-memory backends only):
//
//	vs := vstore.NewVirtualStorage()
//
//	app := vstore.NewMemoryStorage()
//	vs.Mount(app, vstore.MustParsePath("/app/"),
//	    vstore.WithReadWrite(), vstore.WithOverlay(), vstore.WithPriority(10))
//
//	// Store an object; the owning mount at /app/ receives it.
//	vs.Store(ctx, vstore.MustParsePath("/app/greeting"), "hello")
//
//	// Overlay mounts surface their content at the root as well.
//	v, _ := vs.Load(ctx, vstore.MustParsePath("/greeting"))
//
//	// Index paths enumerate children.
//	idx, _ := vs.Load(ctx, vstore.MustParsePath("/"))
//	fmt.Println(idx.(*vstore.Index).Objects())
//
// With a filesystem backend:
//
//	files, _ := vstore.NewFileStorage(afero.NewOsFs(), "/var/lib/vstore",
//	    vstore.WithCompression(2))
//	vs.Mount(files, vstore.MustParsePath("/data/"), vstore.WithReadWrite())
//
// Mounted backends never call back into the VirtualStorage; all composition
// happens in this layer.
package vstore
