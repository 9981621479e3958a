package stowage

// Close releases resources held by this Stowage instance.
//
// This matters for backends whose clients hold their own connections (GCS);
// the filesystem and AWS SDK backends have nothing to release. Close is
// idempotent.
func (st *Stowage) Close() error {
	if st == nil {
		return nil
	}
	if st.closer != nil {
		err := st.closer.Close()
		st.closer = nil
		return err
	}
	return nil
}
