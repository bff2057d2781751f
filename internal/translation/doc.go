// Package translation converts transcript text into the target language.
//
// Backend is a closed two-case variant selected by Engine:
//
//   - FastBatch translates string by string through a PairTranslator
//     (LibreTranslate/Argos). Unsupported language pairs degrade to an
//     identity passthrough flagged in Result instead of failing.
//   - HighQuality sorts inputs by length, batches them through a
//     BatchModel (Opus-MT/EasyNMT), and reassembles by index. It needs
//     tokenizer resources for both languages and fails a call as a whole.
//
// Both variants return exactly one output per input, in input order.
package translation
