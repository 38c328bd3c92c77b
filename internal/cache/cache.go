package cache

// This is a cache of the parsed contents of a set of files. The idea is to be
// able to reuse the results of parsing between builds and make subsequent
// builds faster by avoiding redundant parsing work. This only works if:
//
//   - The AST information in the cache must be considered immutable. There is
//     no way to enforce this in Go, but please be disciplined about this. The
//     ASTs are shared in between builds. The linker copies every symbol slice
//     before merging symbols for exactly this reason.
//
//   - The information in the cache must not depend at all on the contents of
//     any file other than the file being cached. Invalidating an entry in the
//     cache does not also invalidate any entries that depend on that file, so
//     caching information that depends on other files can result in incorrect
//     results due to reusing stale data. Import records are resolved by the
//     scan after the cache lookup and are never stored in the entry.
//
//   - Cached ASTs must only be reused if the parsing options are identical
//     between builds. The source index is part of the source and so is part of
//     the key too, since every symbol ref in the AST contains it.
type CacheSet struct {
	FSCache   FSCache
	JSONCache JSONCache
	JSCache   JSCache
}

func MakeCacheSet() *CacheSet {
	return &CacheSet{
		FSCache: FSCache{
			entries: make(map[string]*fsEntry),
		},
		JSONCache: JSONCache{
			entries: make(map[string]*jsonCacheEntry),
		},
		JSCache: JSCache{
			entries: make(map[string]*jsCacheEntry),
		},
	}
}
