// Package language resolves the language code of an audio file from the
// `{input}/{lang}/` directory it lives in and normalizes codes to BCP-47
// tags.
//
// Chunk exports keep the directory name verbatim so the output tree mirrors
// the input tree; base-language lookups (for g2p selection and display) go
// through golang.org/x/text/language.
package language
