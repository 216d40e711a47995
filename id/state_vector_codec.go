package id

import (
	"io"

	"github.com/cshekharsharma/crdtstore/varint"
)

// EncodeStateVector writes sv to w as a count-prefixed list of (client,
// clock) varint pairs, the same shape update's wire carriers use for their
// per-client runs. This is the format cmd/crdtstore's export/since-file
// flags read and write; it is not part of the document's own KV encoding.
func EncodeStateVector(w io.Writer, sv *StateVector) error {
	clients := sv.Clients()
	if err := varint.WriteUvarint(w, uint64(len(clients))); err != nil {
		return err
	}
	for _, c := range clients {
		if err := varint.WriteUvarint(w, uint64(c)); err != nil {
			return err
		}
		if err := varint.WriteUvarint(w, uint64(sv.Get(c))); err != nil {
			return err
		}
	}
	return nil
}

// DecodeStateVector reads a state vector written by EncodeStateVector.
func DecodeStateVector(r io.ByteReader) (*StateVector, error) {
	n, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	sv := NewStateVector()
	for i := uint64(0); i < n; i++ {
		client, err := varint.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		clock, err := varint.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		sv.SetMax(ClientID(client), Clock(clock))
	}
	return sv, nil
}
