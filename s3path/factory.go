package s3path

import "errors"

// ErrDatasetNameRequired is returned when dataset-scoped storage is enabled
// and no dataset name was supplied.
var ErrDatasetNameRequired = errors.New("dataset name required when dataset-scoped storage is enabled")

// FactoryOptions configures optional Factory behavior.
type FactoryOptions struct {
	// PrefixReplacePath is a local mount root substituted for the stripped
	// prefix of derived addresses when they are rewritten to plain form.
	// Empty means no mount is available and rewriting degenerates to
	// removing the scheme token.
	PrefixReplacePath string

	// DatasetScoped nests column files under a per-dataset segment. When
	// enabled, deriving a column files path requires a dataset name.
	DatasetScoped bool
}

// Factory derives canonical addresses for dataset artifacts from a
// configured dataset root.
//
// The factory is immutable after construction and all methods are pure
// string computation, so a single instance may be shared freely across
// goroutines.
type Factory struct {
	root        string
	replacePath string
	scoped      bool
}

// NewFactory creates a Factory rooted at the given URL-form dataset root,
// e.g. "s3://my-bucket/datasets".
func NewFactory(root string, optFns ...func(*FactoryOptions)) *Factory {
	opts := FactoryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Factory{
		root:        root,
		replacePath: opts.PrefixReplacePath,
		scoped:      opts.DatasetScoped,
	}
}

// Root returns the configured URL-form dataset root.
func (f *Factory) Root() string {
	return f.root
}

// PathOptions configures a single path derivation.
type PathOptions struct {
	// DatasetName selects the per-dataset segment when dataset-scoped
	// storage is enabled. Ignored otherwise.
	DatasetName string

	// KeepScheme keeps the URL scheme and bucket on the derived address.
	// Defaults to true. When false the address is rewritten to plain or
	// mount form.
	KeepScheme bool

	// CutPrefix overrides which leading substring is stripped when the
	// address is rewritten onto the prefix replacement path. Defaults to
	// the scheme token alone, which retains the bucket segment in the
	// rewritten path. Supplying a CutPrefix together with a configured
	// replacement path forces a rewrite even when KeepScheme is true.
	CutPrefix string
}

// WithDatasetName sets the dataset name for a single derivation.
func WithDatasetName(name string) func(*PathOptions) {
	return func(o *PathOptions) {
		o.DatasetName = name
	}
}

// KeepScheme controls whether the derived address keeps its URL form.
func KeepScheme(keep bool) func(*PathOptions) {
	return func(o *PathOptions) {
		o.KeepScheme = keep
	}
}

// WithCutPrefix overrides the stripped prefix for a single derivation.
func WithCutPrefix(prefix string) func(*PathOptions) {
	return func(o *PathOptions) {
		o.CutPrefix = prefix
	}
}

// ColumnConcatenatedBytesFilesPath returns the address of the column
// concatenated bytes files root.
//
// With dataset-scoped storage the path nests under the dataset name and the
// name is required; without it the path sits directly under the dataset
// root. By default the address is returned in URL form. It is rewritten to
// plain or mount form when the caller drops the scheme, or when a cut
// prefix is supplied and a prefix replacement path is configured.
func (f *Factory) ColumnConcatenatedBytesFilesPath(optFns ...func(*PathOptions)) (string, error) {
	opts := PathOptions{KeepScheme: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	var p string
	if f.scoped {
		if opts.DatasetName == "" {
			return "", ErrDatasetNameRequired
		}
		p = Join(f.root, opts.DatasetName, ColumnConcatenatedFilesKey)
	} else {
		p = Join(f.root, ColumnConcatenatedFilesKey)
	}

	rewrite := !opts.KeepScheme || (f.replacePath != "" && opts.CutPrefix != "")
	if !rewrite {
		return p, nil
	}
	return f.rewrite(p, opts.CutPrefix), nil
}

// TemporaryRowFilesPath returns the staging area address for serialized rows
// of the given dataset, in URL form.
func (f *Factory) TemporaryRowFilesPath(datasetID string) string {
	return Join(f.root, TemporaryRowFilesKey, datasetID)
}

// DatasetAssetsPath returns the per-dataset assets root, in URL form.
func (f *Factory) DatasetAssetsPath(datasetID string) string {
	return Join(f.root, datasetID)
}

// rewrite translates a URL-form address into plain or mount form.
//
// Without a replacement path only the scheme token is removed, yielding a
// bucket-relative plain path. With one, the cut prefix (or the scheme token
// when none was supplied) is stripped and the remainder is joined onto the
// replacement path.
func (f *Factory) rewrite(p, cutPrefix string) string {
	if f.replacePath == "" {
		return TrimScheme(p)
	}
	if cutPrefix == "" {
		cutPrefix = Scheme
	}
	return ReplacePrefix(p, cutPrefix, f.replacePath)
}
